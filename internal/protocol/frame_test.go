package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantErr bool
		verify  func(t *testing.T, r *Response)
	}{
		{
			name:  "ultrasonic float frame",
			frame: mkFrame(IndexUltrasonic, DataFloat, []byte{0x00, 0x00, 0x48, 0x43}),
			verify: func(t *testing.T, r *Response) {
				if r.Index != IndexUltrasonic {
					t.Errorf("index = 0x%02x, want 0x%02x", r.Index, IndexUltrasonic)
				}
				if r.DataType != DataFloat {
					t.Errorf("dataType = 0x%02x, want 0x%02x", r.DataType, DataFloat)
				}
				if !bytes.Equal(r.Payload, []byte{0x00, 0x00, 0x48, 0x43}) {
					t.Errorf("payload = % x", r.Payload)
				}
			},
		},
		{
			name:  "version string frame",
			frame: mkFrame(IndexVersion, DataString, []byte("06.01.104")),
			verify: func(t *testing.T, r *Response) {
				if r.Index != IndexVersion {
					t.Errorf("index = 0x%02x, want 0x%02x", r.Index, IndexVersion)
				}
				if string(r.Payload) != "06.01.104" {
					t.Errorf("payload = %q, want %q", r.Payload, "06.01.104")
				}
			},
		},
		{
			name: "minimal frame has no dataType or payload",
			frame: []byte{HeaderFirst, HeaderSecond, 0x02, IndexInnerButton,
				FooterFirst, FooterSecond},
			verify: func(t *testing.T, r *Response) {
				if r.Index != IndexInnerButton {
					t.Errorf("index = 0x%02x, want 0x%02x", r.Index, IndexInnerButton)
				}
				if r.DataType != 0 {
					t.Errorf("dataType = 0x%02x, want 0", r.DataType)
				}
				if len(r.Payload) != 0 {
					t.Errorf("payload = % x, want empty", r.Payload)
				}
			},
		},
		{
			name:    "too short",
			frame:   []byte{HeaderFirst, HeaderSecond, FooterFirst, FooterSecond},
			wantErr: true,
		},
		{
			name:    "bad header",
			frame:   []byte{0xAA, 0x55, 0x02, 0x01, FooterFirst, FooterSecond},
			wantErr: true,
		},
		{
			name:    "bad footer",
			frame:   []byte{HeaderFirst, HeaderSecond, 0x02, 0x01, 0x00, 0x00},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Classify(tt.frame)

			if (err != nil) != tt.wantErr {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedFrame) {
					t.Errorf("error = %v, want ErrMalformedFrame", err)
				}
				return
			}
			if tt.verify != nil {
				tt.verify(t, r)
			}
		})
	}
}

func TestIndexName(t *testing.T) {
	tests := []struct {
		index byte
		want  string
	}{
		{IndexVersion, "Version"},
		{IndexUltrasonic, "Ultrasonic"},
		{IndexLightSensor, "LightSensor"},
		{IndexLineFollower, "LineFollower"},
		{IndexInnerButton, "InnerButton"},
		{0x7F, "Unknown(0x7f)"},
	}

	for _, tt := range tests {
		if got := IndexName(tt.index); got != tt.want {
			t.Errorf("IndexName(0x%02x) = %q, want %q", tt.index, got, tt.want)
		}
	}
}
