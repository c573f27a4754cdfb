// internal/poller/builder.go
package poller

import (
	"sort"
	"strconv"
	"time"

	"github.com/tamzrod/modbus-gateway/internal/registry"
)

// Build groups the registry's polled items by interval and returns one
// Poller per distinct poll_ms. Items without poll_ms and write-only
// broadcast items are skipped; an empty
// result is valid.
func Build(reg *registry.Registry, reader Reader) ([]*Poller, error) {
	groups := make(map[int][]string)
	for _, it := range reg.Polled() {
		if it.Broadcast() {
			continue
		}
		groups[it.PollMs] = append(groups[it.PollMs], it.Name)
	}

	intervals := make([]int, 0, len(groups))
	for ms := range groups {
		intervals = append(intervals, ms)
	}
	sort.Ints(intervals)

	out := make([]*Poller, 0, len(intervals))
	for _, ms := range intervals {
		names := groups[ms]
		sort.Strings(names)

		p, err := New(Config{
			Group:    "every-" + strconv.Itoa(ms) + "ms",
			Interval: time.Duration(ms) * time.Millisecond,
			Items:    names,
		}, reader)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
