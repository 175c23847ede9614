package shytime

import "fmt"

// Range is an ordered closed time interval with an explicit frequency.
type Range struct {
	start, end Point
	freq       Freq
}

// NewRange builds a Range. It does not validate start <= end: an
// inverted range is legal and simply yields an empty Seq, matching the
// "empty time range" boundary behavior the orchestrator relies on.
func NewRange(start, end Point, freq Freq) Range {
	return Range{start: start, end: end, freq: freq}
}

// ParseRange parses start and end with ParsePoint and builds a Range
// stepping at freq.
func ParseRange(startS, endS string, freq Freq) (Range, error) {
	start, err := ParsePoint(startS)
	if err != nil {
		return Range{}, fmt.Errorf("shytime: parsing range start: %w", err)
	}
	end, err := ParsePoint(endS)
	if err != nil {
		return Range{}, fmt.Errorf("shytime: parsing range end: %w", err)
	}
	return NewRange(start, end, freq), nil
}

// Start returns the range's first instant.
func (r Range) Start() Point { return r.start }

// End returns the range's last instant.
func (r Range) End() Point { return r.end }

// EndPlusOne returns one frequency step beyond End.
func (r Range) EndPlusOne() Point { return r.freq.Step(r.end) }

// Freq returns the range's iteration frequency.
func (r Range) Freq() Freq { return r.freq }

// Empty reports whether the range yields no time points.
func (r Range) Empty() bool { return r.end.Before(r.start) }

// Seq returns the finite, ordered sequence of time points the range
// covers at its configured frequency. An inverted range returns nil.
func (r Range) Seq() []Point {
	if r.Empty() {
		return nil
	}
	var out []Point
	for p := r.start; !p.After(r.end); p = r.freq.Step(p) {
		out = append(out, p)
		if len(out) > 1_000_000 {
			// Defensive bound against a misconfigured zero-length step.
			break
		}
	}
	return out
}

// Len returns the number of points Seq would yield, without
// materializing them.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	n := 0
	for p := r.start; !p.After(r.end); p = r.freq.Step(p) {
		n++
	}
	return n
}
