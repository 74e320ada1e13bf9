package scene

import "fmt"

// span is a half-open index range [lo, hi) owned by one worker.
type span struct {
	lo, hi int
}

// splitRanges cuts [0, n) into at most workers contiguous, non-overlapping
// spans of near-equal length. Empty spans are omitted.
func splitRanges(n, workers int) []span {
	if n <= 0 {
		return nil
	}
	workers = min(max(workers, 1), n)
	out := make([]span, 0, workers)
	step, rem := n/workers, n%workers
	lo := 0
	for i := range workers {
		hi := lo + step
		if i < rem {
			hi++
		}
		out = append(out, span{lo: lo, hi: hi})
		lo = hi
	}
	return out
}

// sub returns s[lo:hi] with its capacity capped at hi, so a worker cannot
// append or reslice into its neighbour's range.
func sub[T any](s []T, r span) []T {
	return s[r.lo:r.hi:r.hi]
}

// runPhase runs fn once per span on the worker pool and waits for all of
// them. fn receives the span index for per-worker result slots.
func (m *Mesh) runPhase(name string, spans []span, fn func(worker int, r span)) error {
	if len(spans) == 0 {
		return nil
	}
	group := m.pool.NewGroup()
	for i, r := range spans {
		group.Submit(func() {
			fn(i, r)
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("scene: %s: %w", name, err)
	}
	return nil
}
