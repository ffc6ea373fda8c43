package protocol

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/openmbot/mbotlink/internal/logging"
)

// DefaultMaxBuffer bounds the framer's reassembly buffer. Frames from the
// controller are a handful of bytes, so hitting this means the stream has
// desynchronized (or the peer is not speaking the protocol).
const DefaultMaxBuffer = 4096

// Framer extracts complete header/footer-delimited frames from arbitrarily
// chunked input, buffering partial data across calls.
//
// A Framer is not safe for concurrent use; its buffer must be owned by a
// single consumer.
type Framer struct {
	header  []byte
	footer  []byte
	minSize int
	maxBuf  int
	buf     []byte
}

// NewFramer creates a Framer configured for the mCore wire protocol.
func NewFramer() *Framer {
	return NewFramerWith(Header, Footer, MinFrameSize, DefaultMaxBuffer)
}

// NewFramerWith creates a Framer with explicit delimiters, minimum frame
// size (bytes from the header start before the footer check applies), and
// buffer bound.
func NewFramerWith(header, footer []byte, minSize, maxBuf int) *Framer {
	return &Framer{
		header:  header,
		footer:  footer,
		minSize: minSize,
		maxBuf:  maxBuf,
	}
}

// Feed appends a chunk to the internal buffer and returns every complete
// frame now available, in order. Each returned frame is an independent copy
// including both delimiters. Trailing incomplete bytes are retained for the
// next call; malformed or unterminated input never fails, the framer simply
// waits for more bytes.
func (f *Framer) Feed(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	var frames [][]byte
	for {
		start := bytes.Index(f.buf, f.header)
		if start < 0 {
			// No header anywhere; keep only a tail that could be a
			// header prefix split across chunks.
			if keep := len(f.header) - 1; len(f.buf) > keep {
				f.buf = append(f.buf[:0], f.buf[len(f.buf)-keep:]...)
			}
			break
		}
		if start > 0 {
			// Discard noise before the header
			f.buf = append(f.buf[:0], f.buf[start:]...)
		}

		end, ok := f.findFooter()
		if !ok {
			if len(f.buf) > f.maxBuf {
				f.resync()
				continue
			}
			break
		}

		frame := make([]byte, end)
		copy(frame, f.buf[:end])
		frames = append(frames, frame)
		f.buf = append(f.buf[:0], f.buf[end:]...)
	}

	return frames
}

// findFooter locates the footer at or beyond the minimum frame size,
// returning the exclusive end offset of the frame.
func (f *Framer) findFooter() (int, bool) {
	if len(f.buf) < f.minSize+len(f.footer) {
		return 0, false
	}
	i := bytes.Index(f.buf[f.minSize:], f.footer)
	if i < 0 {
		return 0, false
	}
	return f.minSize + i + len(f.footer), true
}

// resync discards the stuck frame candidate at the front of the buffer and
// realigns on the next header occurrence, if any.
func (f *Framer) resync() {
	logging.Warn("Framer buffer overflow, resynchronizing",
		zap.Int("buffered", len(f.buf)),
		zap.Int("max", f.maxBuf),
	)
	next := bytes.Index(f.buf[len(f.header):], f.header)
	if next < 0 {
		if keep := len(f.header) - 1; len(f.buf) > keep {
			f.buf = append(f.buf[:0], f.buf[len(f.buf)-keep:]...)
		}
		return
	}
	f.buf = append(f.buf[:0], f.buf[len(f.header)+next:]...)
}

// Pending reports how many incomplete bytes are currently buffered.
func (f *Framer) Pending() int {
	return len(f.buf)
}

// Reset discards all buffered bytes.
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}
