package pipeline

import (
	"context"
	"errors"
	"io"

	"go-fm-rds/internal/iqsource"
	"go-fm-rds/internal/ringbuffer"
)

// Feed copies src into rb until the source is exhausted, ctx is cancelled or
// rb is closed by the consumer. rb is closed on return so the consumer sees
// the end of the stream.
func Feed(ctx context.Context, src iqsource.Source, rb *ringbuffer.RingBuffer[complex64]) error {
	defer rb.Close()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		block, err := src.ReadBlock()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := rb.Write(block); err != nil {
			// The consumer went away.
			return ctx.Err()
		}
	}
}
