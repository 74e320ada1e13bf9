package profiling

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// Per-frame CPU timer registry. Names are "package.Phase".

var (
	mu     sync.Mutex
	totals = make(map[string]time.Duration)
	calls  = make(map[string]int)
)

// Entry is one named total from the current frame.
type Entry struct {
	Name  string
	Total time.Duration
	Calls int
}

// Track returns a stop function that adds the elapsed time to name.
// Usage: defer profiling.Track("scene.Transform")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		Add(name, time.Since(start))
	}
}

// Add records d under name without timing anything itself.
func Add(name string, d time.Duration) {
	mu.Lock()
	totals[name] += d
	calls[name]++
	mu.Unlock()
}

// ResetFrame clears the current totals. Call once at the start of a frame.
func ResetFrame() {
	mu.Lock()
	clear(totals)
	clear(calls)
	mu.Unlock()
}

// Snapshot returns a copy of the current totals.
func Snapshot() map[string]time.Duration {
	mu.Lock()
	defer mu.Unlock()
	return maps.Clone(totals)
}

// Entries returns the current totals sorted by descending duration, ties by name.
func Entries() []Entry {
	mu.Lock()
	out := make([]Entry, 0, len(totals))
	for name, d := range totals {
		out = append(out, Entry{Name: name, Total: d, Calls: calls[name]})
	}
	mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// TopN formats the n slowest entries, e.g. "scene.Transform:4.2ms, scene.Bin:2.1ms".
func TopN(n int) string {
	list := Entries()
	n = min(n, len(list))
	parts := make([]string, 0, n)
	for _, e := range list[:n] {
		parts = append(parts, e.Name+":"+formatMs(e.Total))
	}
	return strings.Join(parts, ", ")
}

func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("%.1f", ms)
	return strings.TrimSuffix(s, ".0") + "ms"
}
