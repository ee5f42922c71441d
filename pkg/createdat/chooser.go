package createdat

import (
	"github.com/rs/zerolog"
)

// Chooser resolves a file to a single timestamp.
type Chooser struct {
	extractors []Extractor
	dateRange  DateRange
	log        zerolog.Logger
}

// NewChooser returns a Chooser running extractors in the given priority order.
func NewChooser(extractors []Extractor, dateRange DateRange, log zerolog.Logger) *Chooser {
	return &Chooser{extractors: extractors, dateRange: dateRange, log: log}
}

// Resolve returns the timestamp chosen for path.
//
// Only the candidates of the first extractor returning any are considered,
// so a lower priority source cannot bring back a file whose better evidence
// was filtered out by the date range. Failures are *RejectedError.
func (c *Chooser) Resolve(path string) (Candidate, error) {
	c.log.Debug().Str("path", path).Msg("computing timestamp")

	var candidates []Candidate
	for _, e := range c.extractors {
		candidates = e.ExtractDates(path)
		if len(candidates) > 0 {
			c.log.Debug().Str("path", path).Str("extractor", e.Name()).Int("candidates", len(candidates)).Msg("extractor matched")
			break
		}
	}
	if len(candidates) == 0 {
		c.log.Error().Str("path", path).Msg("could not find a date")
		return Candidate{}, &RejectedError{Path: path, Reason: ErrNoCandidates}
	}

	inRange := make([]Candidate, 0, len(candidates))
	var excluded []Candidate
	for _, cand := range candidates {
		if !c.dateRange.Contains(cand.Time) {
			c.log.Info().Str("path", path).Stringer("candidate", cand).Stringer("range", c.dateRange).Msg("date excluded, not in range")
			excluded = append(excluded, cand)
			continue
		}
		inRange = append(inRange, cand)
	}

	chosen, ok := Consensus(inRange)
	if !ok {
		c.log.Error().Str("path", path).Msg("could not find a date in range")
		return Candidate{}, &RejectedError{Path: path, Reason: ErrOutOfRange, Excluded: excluded}
	}
	return chosen, nil
}

// Consensus reduces candidates to one by iterative outlier rejection: the
// candidate furthest from the mean is dropped until one remains. On a tie the
// first candidate in slice order is dropped. Candidates are compared as Unix
// seconds. It returns false for an empty slice.
func Consensus(candidates []Candidate) (Candidate, bool) {
	switch len(candidates) {
	case 0:
		return Candidate{}, false
	case 1:
		return candidates[0], true
	}

	remaining := make([]Candidate, len(candidates))
	copy(remaining, candidates)

	for len(remaining) > 1 {
		n := int64(len(remaining))
		var sum int64
		for _, c := range remaining {
			sum += c.Time.Unix()
		}

		// |v - sum/n| compared as |n*v - sum| keeps the mean exact.
		furthest := 0
		var maxDist int64 = -1
		for i, c := range remaining {
			d := abs(n*c.Time.Unix() - sum)
			if d > maxDist {
				furthest, maxDist = i, d
			}
		}
		remaining = append(remaining[:furthest], remaining[furthest+1:]...)
	}
	return remaining[0], true
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
