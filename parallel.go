package x3

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/uwacoustics/x3/frame"
)

// A FrameJob is one already-buffered, independent frame ready for
// concurrent decode: a parsed header, its verified-length payload, and the
// disjoint slice of the caller's output buffer it should write into.
type FrameJob struct {
	Header  *frame.Header
	Payload []byte
	Out     []int16
}

// DecodeFramesConcurrently decodes a batch of independent frames in
// parallel, bounded by maxConcurrency simultaneous decodes. Frames are
// independent by construction (each carries its own reference sample and
// CRCs), so this is a legal, purely additive extension over the
// synchronous frame driver: it never shares mutable state across jobs
// beyond each job's own disjoint Out slice.
//
// Frame boundaries must already be known (headers read sequentially from a
// non-seekable stream cannot be found any other way); this only
// parallelizes the CPU-bound decode of already-buffered payloads.
func DecodeFramesConcurrently(ctx context.Context, jobs []FrameJob, p *frame.Parameters, maxConcurrency int64) error {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	sem := semaphore.NewWeighted(maxConcurrency)
	g, ctx := errgroup.WithContext(ctx)

	for i := range jobs {
		job := jobs[i]
		g.Go(func() error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			_, err := frame.DecodeFrame(job.Header, job.Payload, p, job.Out)
			return err
		})
	}
	return g.Wait()
}
