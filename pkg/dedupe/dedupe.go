// Package dedupe breaks timestamp collisions inside a batch of resolved files.
package dedupe

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/quidome/snapsort/pkg/createdat"
)

// ErrNoFixpoint is returned when collision avoidance does not settle within
// the pass limit. It indicates a bug, not bad input.
var ErrNoFixpoint = errors.New("collision avoidance did not converge")

// Deduplicate shifts colliding timestamps by whole seconds until every record
// has a distinct timestamp.
//
// Each pass groups records by second; members of a group of n get offsets
// 0..n-1 in batch order and are tagged SourceCollisionAvoidance. A shift can
// collide with another record, so passes repeat until one finds nothing to do.
// The result is sorted by timestamp, then path. records is not modified.
func Deduplicate(records []createdat.Record) ([]createdat.Record, error) {
	out := make([]createdat.Record, len(records))
	copy(out, records)

	limit := len(out)*len(out) + 1
	for pass := 0; ; pass++ {
		if pass >= limit {
			return nil, fmt.Errorf("%w after %d passes over %d records", ErrNoFixpoint, pass, len(out))
		}
		if !step(out) {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp.Time, out[j].Timestamp.Time
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// step runs one pass in place and reports whether any collision was found.
func step(records []createdat.Record) bool {
	groups := make(map[int64][]int)
	var order []int64
	for i, r := range records {
		key := r.Timestamp.Time.Unix()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	collisions := false
	for _, key := range order {
		members := groups[key]
		if len(members) == 1 {
			continue
		}
		collisions = true
		for offset, i := range members {
			records[i].Timestamp = createdat.Candidate{
				Time:   records[i].Timestamp.Time.Add(time.Duration(offset) * time.Second),
				Source: createdat.SourceCollisionAvoidance,
			}
		}
	}
	return collisions
}
