// Package batch runs per-file dataset jobs across a bounded pool of workers.
//
// A validation failure in any input is fatal for the whole run; parse errors
// and missing assets are logged and counted, and the run continues.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/drscotthawley/espiownage/pkg/coco"
	"github.com/drscotthawley/espiownage/pkg/ellipse"
	"github.com/drscotthawley/espiownage/pkg/mask"
)

// Result is what a task reports for one input.
type Result struct {
	Source  string
	Outputs []string
	Skipped int
	Values  mask.Values
	Frame   *coco.Frame
	Err     error
}

// Summary aggregates the results of a run, in input order.
type Summary struct {
	Processed int
	Failed    int
	Skipped   int
	Outputs   []string
	Values    mask.Values
	Frames    []coco.Frame
	Errors    []error
}

// Runner holds the pool settings shared by every run.
type Runner struct {
	Workers int
	Logger  *log.Logger
}

// New creates a Runner. Non-positive workers means one per CPU; a nil logger
// means log.Default().
func New(workers int, logger *log.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Workers: workers, Logger: logger}
}

// Fatal reports whether err must abort a run.
func Fatal(err error) bool {
	var verr *ellipse.ValidationError
	return errors.As(err, &verr)
}

// Run applies task to every item with at most r.Workers in flight. Items not
// yet started when a fatal error occurs are never run, and the fatal error is
// returned alongside the partial summary.
func Run[T any](ctx context.Context, r *Runner, items []T, task func(context.Context, T) Result) (Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(items))
	var (
		mu       sync.Mutex
		fatalErr error
		wg       sync.WaitGroup
	)
	sem := make(chan struct{}, r.Workers)

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, item T) {
			defer wg.Done()
			defer func() { <-sem }()
			if ctx.Err() != nil {
				return
			}

			res := task(ctx, item)
			mu.Lock()
			results[i] = &res
			if res.Err != nil && Fatal(res.Err) && fatalErr == nil {
				fatalErr = fmt.Errorf("%s: %w", res.Source, res.Err)
				cancel()
			}
			mu.Unlock()
		}(i, item)
	}
	wg.Wait()

	sum := Summary{Values: mask.Values{}}
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, res.Err)
			r.Logger.Printf("%s: %v", res.Source, res.Err)
			continue
		}
		sum.Processed++
		sum.Skipped += res.Skipped
		sum.Outputs = append(sum.Outputs, res.Outputs...)
		if res.Values != nil {
			sum.Values.Union(res.Values)
		}
		if res.Frame != nil {
			sum.Frames = append(sum.Frames, *res.Frame)
		}
	}

	if fatalErr != nil {
		return sum, fatalErr
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}
