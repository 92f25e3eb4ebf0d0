package osmparser

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Stream decodes records on a separate goroutine and hands them to handle in input order through a
// queue of at most queueSize records. handle is called from a single goroutine.
// the first error of either side stops both.
func Stream(ctx context.Context, rr *RecordReader, queueSize int, handle func(rec Record) error) error {
	if queueSize < 1 {
		queueSize = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	records := make(chan Record, queueSize)

	g.Go(func() error {
		defer close(records)
		for rr.Next() {
			select {
			case records <- rr.Record():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return rr.Err()
	})

	g.Go(func() error {
		for rec := range records {
			if err := handle(rec); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
