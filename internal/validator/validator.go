package validator

import (
	"context"

	"github.com/nao1215/prodcheck/internal/model"
	"golang.org/x/sync/errgroup"
)

// Option configures ValidateAll.
type Option func(*options)

type options struct {
	concurrency int
}

// WithConcurrency validates up to n records at once.
// Values below 2 validate sequentially.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// ValidateAll validates records and returns one result per record in input
// order, regardless of concurrency. It stops early only when ctx is done.
func ValidateAll(ctx context.Context, records []model.Record, opts ...Option) ([]model.RecordResult, error) {
	o := options{concurrency: 1}
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]model.RecordResult, len(records))

	if o.concurrency < 2 {
		for i, r := range records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = validateOne(r, i)
		}
		return results, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, r := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Each goroutine writes only its own slot.
			results[i] = validateOne(r, i)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func validateOne(r model.Record, index int) model.RecordResult {
	return model.RecordResult{
		Index:     index,
		ProductID: r.ProductID(index),
		Label:     r.Label(index),
		Defects:   ValidateRecord(r, index),
	}
}

// Defects flattens results into one defect list in record order.
func Defects(results []model.RecordResult) []model.Defect {
	var defects []model.Defect
	for _, r := range results {
		defects = append(defects, r.Defects...)
	}
	return defects
}
