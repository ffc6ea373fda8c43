package protocol

import (
	"bytes"
	"testing"
)

// mkFrame builds a complete inbound frame for an index type and payload.
func mkFrame(index, dataType byte, payload []byte) []byte {
	frame := []byte{HeaderFirst, HeaderSecond, byte(len(payload) + 2), index, dataType}
	frame = append(frame, payload...)
	return append(frame, FooterFirst, FooterSecond)
}

func TestFramerFeed(t *testing.T) {
	ultrasonic := mkFrame(IndexUltrasonic, DataFloat, []byte{0x00, 0x00, 0x48, 0x43})
	button := mkFrame(IndexInnerButton, DataByte, []byte{0x01})

	tests := []struct {
		name  string
		feeds [][]byte
		want  [][]byte
	}{
		{
			name:  "single complete frame in one chunk",
			feeds: [][]byte{ultrasonic},
			want:  [][]byte{ultrasonic},
		},
		{
			name:  "two frames concatenated in one chunk",
			feeds: [][]byte{append(append([]byte{}, ultrasonic...), button...)},
			want:  [][]byte{ultrasonic, button},
		},
		{
			name:  "noise before the header is discarded",
			feeds: [][]byte{append([]byte{0x00, 0x13, 0x37}, button...)},
			want:  [][]byte{button},
		},
		{
			name: "frame completed by a later chunk",
			feeds: [][]byte{
				ultrasonic[:5],
				ultrasonic[5:],
			},
			want: [][]byte{ultrasonic},
		},
		{
			name: "footer split across chunks",
			feeds: [][]byte{
				button[:len(button)-1],
				button[len(button)-1:],
			},
			want: [][]byte{button},
		},
		{
			name:  "no header yields nothing",
			feeds: [][]byte{{0x01, 0x02, 0x03, 0x04}},
			want:  nil,
		},
		{
			name:  "header alone yields nothing",
			feeds: [][]byte{{HeaderFirst, HeaderSecond, 0x02}},
			want:  nil,
		},
		{
			name: "footer bytes inside the minimum frame region are skipped",
			// FF 55 0D 0A ... the 0D 0A at offset 2 is field data, not a
			// footer; only the one at or beyond MinFrameSize terminates.
			feeds: [][]byte{{HeaderFirst, HeaderSecond, FooterFirst, FooterSecond, FooterFirst, FooterSecond}},
			want:  [][]byte{{HeaderFirst, HeaderSecond, FooterFirst, FooterSecond, FooterFirst, FooterSecond}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramer()

			var got [][]byte
			for _, chunk := range tt.feeds {
				got = append(got, f.Feed(chunk)...)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("frames = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !bytes.Equal(got[i], tt.want[i]) {
					t.Errorf("frame %d = % x, want % x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFramerSplitByteByByte(t *testing.T) {
	frame := mkFrame(IndexLightSensor, DataFloat, []byte{0x00, 0x00, 0xc8, 0x42})
	f := NewFramer()

	for i := 0; i < len(frame)-1; i++ {
		if got := f.Feed(frame[i : i+1]); len(got) != 0 {
			t.Fatalf("frame emitted after %d of %d bytes", i+1, len(frame))
		}
	}

	got := f.Feed(frame[len(frame)-1:])
	if len(got) != 1 {
		t.Fatalf("frames after final byte = %d, want 1", len(got))
	}
	if !bytes.Equal(got[0], frame) {
		t.Errorf("frame = % x, want % x", got[0], frame)
	}
	if f.Pending() != 0 {
		t.Errorf("pending = %d, want 0", f.Pending())
	}
}

func TestFramerArbitraryChunking(t *testing.T) {
	frames := [][]byte{
		mkFrame(IndexUltrasonic, DataFloat, []byte{0x00, 0x00, 0x48, 0x43}),
		mkFrame(IndexLineFollower, DataFloat, []byte{0x00, 0x00, 0x46, 0x32}),
		mkFrame(IndexInnerButton, DataByte, []byte{0x00}),
		mkFrame(IndexVersion, DataString, []byte("06.01.104")),
		mkFrame(IndexLightSensor, DataFloat, []byte{0x00, 0x80, 0x3b, 0x44}),
	}

	var stream []byte
	for _, fr := range frames {
		stream = append(stream, fr...)
	}

	for _, chunkSize := range []int{1, 2, 3, 5, 7, 11, len(stream)} {
		f := NewFramer()

		var got [][]byte
		for off := 0; off < len(stream); off += chunkSize {
			end := off + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, f.Feed(stream[off:end])...)
		}

		if len(got) != len(frames) {
			t.Fatalf("chunk size %d: frames = %d, want %d", chunkSize, len(got), len(frames))
		}
		for i := range got {
			if !bytes.Equal(got[i], frames[i]) {
				t.Errorf("chunk size %d: frame %d = % x, want % x", chunkSize, i, got[i], frames[i])
			}
		}
	}
}

func TestFramerOverflowResync(t *testing.T) {
	f := NewFramerWith(Header, Footer, MinFrameSize, 32)

	// A header followed by unterminated junk well past the buffer bound
	junk := append([]byte{HeaderFirst, HeaderSecond}, bytes.Repeat([]byte{0x42}, 64)...)
	if got := f.Feed(junk); len(got) != 0 {
		t.Fatalf("frames from junk = %d, want 0", len(got))
	}

	// After resync a well-formed frame must still come through
	frame := mkFrame(IndexInnerButton, DataByte, []byte{0x01})
	got := f.Feed(frame)
	if len(got) != 1 {
		t.Fatalf("frames after resync = %d, want 1", len(got))
	}
	if !bytes.Equal(got[0], frame) {
		t.Errorf("frame = % x, want % x", got[0], frame)
	}
}

func TestFramerReset(t *testing.T) {
	f := NewFramer()
	f.Feed([]byte{HeaderFirst, HeaderSecond, 0x04, 0x01})
	if f.Pending() == 0 {
		t.Fatal("expected buffered bytes before reset")
	}

	f.Reset()
	if f.Pending() != 0 {
		t.Errorf("pending after reset = %d, want 0", f.Pending())
	}
}
