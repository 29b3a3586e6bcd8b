package x3

import (
	"context"
	"testing"

	"github.com/uwacoustics/x3/frame"
	"github.com/uwacoustics/x3/internal/crc16"
)

func TestDecodeFramesConcurrently(t *testing.T) {
	p := &frame.Parameters{BlockLen: 6, RiceCodes: [3]frame.RiceCode{frame.Rice0, frame.Rice1, frame.Rice2}}

	const frames = 4
	jobs := make([]FrameJob, frames)
	for i := 0; i < frames; i++ {
		payload := allZeroFramePayload(6)
		hdr := &frame.Header{Samples: 6, PayloadCRC: crc16.Checksum(payload)}
		jobs[i] = FrameJob{Header: hdr, Payload: payload, Out: make([]int16, 6)}
	}

	if err := DecodeFramesConcurrently(context.Background(), jobs, p, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, job := range jobs {
		for j, s := range job.Out {
			if s != 0 {
				t.Errorf("job %d sample %d: expected 0, got %d", i, j, s)
			}
		}
	}
}

func TestDecodeFramesConcurrentlyPropagatesError(t *testing.T) {
	p := &frame.Parameters{BlockLen: 6, RiceCodes: [3]frame.RiceCode{frame.Rice0, frame.Rice1, frame.Rice2}}
	payload := allZeroFramePayload(6)
	badHdr := &frame.Header{Samples: 6, PayloadCRC: crc16.Checksum(payload) ^ 0xFFFF}
	jobs := []FrameJob{{Header: badHdr, Payload: payload, Out: make([]int16, 6)}}

	if err := DecodeFramesConcurrently(context.Background(), jobs, p, 2); err == nil {
		t.Error("expected an error from a job with a bad payload crc")
	}
}
