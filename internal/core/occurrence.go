package core

// Occurrence is the outcome of testing a transaction against a date.
type Occurrence struct {
	// Matched reports whether the rule fires on the tested date.
	Matched bool
	// Anchor is the anchor the rule should adopt after the test: the matched
	// occurrence on a hit, otherwise the anchor after window drift.
	Anchor Date
	// Cycle is the occurrence index that matched.
	Cycle int
}

// Match tests whether the rule fires on date, looking checkCycles occurrences
// either side of the anchor. It does not modify t.
//
// When the anchor is a full reachable window (frequency*checkCycles) or more
// away from date it is first stepped toward date one window at a time, so
// only occurrences within a window of the stepped anchor are examined.
func (t *Transaction) Match(date Date, checkCycles int) Occurrence {
	if checkCycles < 1 {
		checkCycles = 1
	}
	freq := t.Frequency.Days()
	window := freq * checkCycles
	anchor := t.SampleDate

	elapsed := date.DaysSince(anchor)
	for abs(elapsed) >= window {
		if elapsed > 0 {
			anchor = anchor.AddDays(window)
		} else {
			anchor = anchor.AddDays(-window)
		}
		elapsed = date.DaysSince(anchor)
	}

	for i := 0; i < checkCycles; i++ {
		backward := anchor.AddDays(-freq * i)
		if backward.SameDay(date) {
			return Occurrence{Matched: true, Anchor: backward, Cycle: i}
		}
		forward := anchor.AddDays(freq * i)
		if forward.SameDay(date) {
			return Occurrence{Matched: true, Anchor: forward, Cycle: i}
		}
	}
	return Occurrence{Anchor: anchor}
}

// AdvanceAnchor moves the rule's anchor to d.
func (t *Transaction) AdvanceAnchor(d Date) {
	t.SampleDate = d
}

// ShouldOccur reports whether the rule fires on date and advances the anchor
// as Match describes. It is stateful: calling it twice for the same date can
// give different answers because the anchor moves.
func (t *Transaction) ShouldOccur(date Date, checkCycles int) bool {
	occ := t.Match(date, checkCycles)
	t.AdvanceAnchor(occ.Anchor)
	return occ.Matched
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
