// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parallel evaluates the separable operations of a sap.Bundle on multiple goroutines.
//
// The projection and Hessian of a bundle act on each constraint independently,
// so the bundle constraint range [0,n) is split into contiguous partitions whose
// equation sub-ranges never overlap. The result is identical to the serial call.
package parallel

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/curioloop/contact/blocksparse"
	"github.com/curioloop/contact/sap"
)

// Range is a half-open range [Lo,Hi) of bundle constraints.
type Range struct {
	Lo, Hi int
}

// Partition splits [0,n) into at most workers contiguous ranges of near equal length.
// A non-positive workers uses GOMAXPROCS.
func Partition(n, workers int) []Range {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, n)
	if workers <= 0 {
		return nil
	}
	parts := make([]Range, workers)
	size, rem := n/workers, n%workers
	lo := 0
	for p := range parts {
		hi := lo + size
		if p < rem {
			hi++
		}
		parts[p] = Range{Lo: lo, Hi: hi}
		lo = hi
	}
	return parts
}

// ProjectImpulses computes γ = P(y) and optionally ∂P/∂y like sap.Bundle.ProjectImpulses.
func ProjectImpulses(ctx context.Context, b *sap.Bundle, workers int, y, gamma []float64, dPdy []*blocksparse.Dense) error {
	// validate dimensions on the calling goroutine
	b.ProjectImpulsesRange(0, 0, y, gamma, dPdy)
	return run(ctx, b.NumConstraints(), workers, func(r Range) {
		b.ProjectImpulsesRange(r.Lo, r.Hi, y, gamma, dPdy)
	})
}

// ProjectImpulsesAndCalcConstraintsHessian computes γ = P(y) and the Hessian blocks
// like sap.Bundle.ProjectImpulsesAndCalcConstraintsHessian.
func ProjectImpulsesAndCalcConstraintsHessian(ctx context.Context, b *sap.Bundle, workers int, y, gamma []float64, G []*blocksparse.Dense) error {
	b.ProjectImpulsesAndCalcConstraintsHessianRange(0, 0, y, gamma, G)
	return run(ctx, b.NumConstraints(), workers, func(r Range) {
		b.ProjectImpulsesAndCalcConstraintsHessianRange(r.Lo, r.Hi, y, gamma, G)
	})
}

// run executes task over every partition. A panic inside a task is reported as an error.
func run(ctx context.Context, n, workers int, task func(Range)) error {
	parts := Partition(n, workers)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(len(parts), 1))

	started := 0
	for _, r := range parts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("parallel: constraints [%d,%d) panic: %v", r.Lo, r.Hi, p)
				}
			}()
			task(r)
			return nil
		})
		started++
	}

	err := g.Wait()
	if err == nil && started < len(parts) {
		err = ctx.Err()
	}
	return err
}
