// Package pipeline runs routing compilation algorithms in sequence.
//
// Each algorithm declares the data items it requires and produces.
// A pipeline is validated against the items provided by the caller before any algorithm runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/mcroute/mcroute/core/logging"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var logger = logging.New("pipeline")

// Errors.
var (
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrMissingInput     = errors.New("missing input")
)

// Validate checks that every algorithm exists and its required items are available,
// either provided initially or produced by an earlier algorithm.
func Validate(names []string, provided []Item) error {
	available := map[Item]bool{}
	for _, item := range provided {
		available[item] = true
	}

	errs := []error{}
	for _, name := range names {
		a, ok := Lookup(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w %s", ErrUnknownAlgorithm, name))
			continue
		}
		for _, item := range a.Requires {
			if !available[item] {
				errs = append(errs, fmt.Errorf("%w: %s requires %s", ErrMissingInput, name, item))
			}
		}
		for _, item := range a.Produces {
			available[item] = true
		}
	}
	return multierr.Combine(errs...)
}

// Run validates and runs algorithms in order.
// It stops at the first failing algorithm; items produced so far remain in c.
func Run(ctx context.Context, names []string, c *Context) error {
	if e := Validate(names, c.Provided()); e != nil {
		return e
	}

	for _, name := range names {
		if e := ctx.Err(); e != nil {
			return e
		}
		a, _ := Lookup(name)
		t0 := time.Now()
		e := a.Run(ctx, c)
		logger.Info("algorithm finished",
			zap.String("algorithm", name),
			zap.Duration("duration", time.Since(t0)),
			zap.Error(e),
		)
		if e != nil {
			return fmt.Errorf("%s: %w", name, e)
		}
	}
	return nil
}

// Produces returns items produced by the named algorithms, in order of first production.
func Produces(names []string) (items []Item) {
	for _, name := range names {
		a, _ := Lookup(name)
		for _, item := range a.Produces {
			if !slices.Contains(items, item) {
				items = append(items, item)
			}
		}
	}
	return items
}
