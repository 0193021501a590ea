// Package paginate decides how the service records of a recipe are spread
// over pages and where the closing summary goes.
//
// The decisions are made by a small explicit state machine. Step is pure: it
// looks at the current state and counters and names the next action. Plan
// drives Step over n records and returns the resulting page layout, which the
// composer then draws.
package paginate

import (
	"errors"
	"fmt"
)

// Page capacities in records.
const (
	FirstPageCapacity    = 17
	ContinuationCapacity = 27
)

// ErrCapacityInvariant is returned when a plan does not place every record
// exactly once.
var ErrCapacityInvariant = errors.New("pagination does not place every record exactly once")

// CapacityError reports a broken plan.
type CapacityError struct {
	Placed int
	Total  int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("paginate: placed %d of %d records", e.Placed, e.Total)
}

// Unwrap returns ErrCapacityInvariant.
func (e *CapacityError) Unwrap() error { return ErrCapacityInvariant }

// State of the pagination machine.
type State int

// States.
const (
	FillingFirstPage State = iota
	FillingContinuationPage
	Done
)

func (s State) String() string {
	switch s {
	case FillingFirstPage:
		return "filling-first-page"
	case FillingContinuationPage:
		return "filling-continuation-page"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Action is what the composer does next.
type Action int

// Actions.
const (
	PlaceItem Action = iota
	PlaceSubtotal
	BreakPage
	Finish
)

func (a Action) String() string {
	switch a {
	case PlaceItem:
		return "place-item"
	case PlaceSubtotal:
		return "place-subtotal"
	case BreakPage:
		return "break-page"
	case Finish:
		return "finish"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Capacity returns the number of records a page in state s holds.
func Capacity(s State) int {
	if s == FillingFirstPage {
		return FirstPageCapacity
	}
	return ContinuationCapacity
}

// Step returns the next action for a page in state s that already holds
// placedOnPage records, with remaining records still to place. isFinalBatch
// tells whether the records on the current page are the last ones.
//
// The first page always closes with a subtotal, even when it holds no
// records. Continuation pages close with a subtotal unless they hold the final
// batch. Once a page is closed, StepAfterSubtotal names the next action.
func Step(s State, placedOnPage, remaining int, isFinalBatch bool) Action {
	switch s {
	case FillingFirstPage:
		if remaining > 0 && placedOnPage < FirstPageCapacity {
			return PlaceItem
		}
		return PlaceSubtotal
	case FillingContinuationPage:
		if remaining > 0 && placedOnPage < ContinuationCapacity {
			return PlaceItem
		}
		if isFinalBatch {
			return Finish
		}
		return PlaceSubtotal
	default:
		return Finish
	}
}

// StepAfterSubtotal returns the action following a subtotal: a page break
// when records remain, Finish otherwise.
func StepAfterSubtotal(remaining int) Action {
	if remaining > 0 {
		return BreakPage
	}
	return Finish
}

// Next returns the state reached by performing a in state s.
func Next(s State, a Action) State {
	switch a {
	case BreakPage:
		return FillingContinuationPage
	case Finish:
		return Done
	default:
		return s
	}
}

// Page is the slice of records drawn on one page.
type Page struct {
	Number       int  // 1-based
	Start, End   int  // Record index range [Start, End)
	Subtotal     bool // A subtotal row closes the page
	Continuation bool // Not the first page
	Last         bool // Holds the final batch
}

// Len returns the number of records on the page.
func (p Page) Len() int { return p.End - p.Start }

// Plan runs the state machine over n records and returns one Page per page.
// The result is verified: every record index appears on exactly one page.
func Plan(n int) ([]Page, error) {
	if n < 0 {
		return nil, fmt.Errorf("paginate: negative record count %d", n)
	}

	var pages []Page
	state := FillingFirstPage
	page := Page{Number: 1}
	placed := 0

	for state != Done {
		remaining := n - placed
		final := page.Continuation && page.Start+ContinuationCapacity >= n

		action := Step(state, page.Len(), remaining, final)
		switch action {
		case PlaceItem:
			placed++
			page.End = placed
		case PlaceSubtotal:
			page.Subtotal = true
			action = StepAfterSubtotal(remaining)
		}

		switch action {
		case BreakPage:
			pages = append(pages, page)
			page = Page{Number: page.Number + 1, Start: placed, End: placed, Continuation: true}
		case Finish:
			page.Last = true
			pages = append(pages, page)
		}
		state = Next(state, action)
	}

	if err := verify(pages, n); err != nil {
		return nil, err
	}
	return pages, nil
}

func verify(pages []Page, n int) error {
	next := 0
	for _, p := range pages {
		if p.Start != next || p.End < p.Start {
			return &CapacityError{Placed: next, Total: n}
		}
		if p.Len() > Capacity(stateOf(p)) {
			return &CapacityError{Placed: next, Total: n}
		}
		next = p.End
	}
	if next != n {
		return &CapacityError{Placed: next, Total: n}
	}
	return nil
}

func stateOf(p Page) State {
	if p.Continuation {
		return FillingContinuationPage
	}
	return FillingFirstPage
}

// Range is a half-open index range.
type Range struct {
	Start, End int
}

// Chunk splits n items into consecutive ranges of at most size items. It
// returns ceil(n/size) ranges, none for n <= 0.
func Chunk(n, size int) []Range {
	if n <= 0 || size <= 0 {
		return nil
	}
	chunks := make([]Range, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		chunks = append(chunks, Range{Start: start, End: min(start+size, n)})
	}
	return chunks
}

// FooterInput describes the situation after the last record was drawn.
type FooterInput struct {
	Cursor                float64 // Current vertical position
	Threshold             float64 // Lowest cursor position at which the summary still fits
	SubtotalHeight        float64 // Extent of a subtotal row
	NeedsTrailingSubtotal bool    // The last page has no subtotal of its own
}

// FooterDecision is the outcome of PlaceFooter.
type FooterDecision struct {
	TrailingSubtotal   bool // Draw a subtotal for the last page first
	BreakBeforeSummary bool // Start a new page for the summary
}

// PlaceFooter decides where the closing summary goes. When the summary does
// not fit below the cursor, a last page without subtotal gets one before it
// moves on. The break decision is taken with the cursor below that subtotal.
func PlaceFooter(in FooterInput) FooterDecision {
	var d FooterDecision
	cursor := in.Cursor

	if cursor > in.Threshold && in.NeedsTrailingSubtotal {
		d.TrailingSubtotal = true
		cursor += in.SubtotalHeight
	}
	if cursor > in.Threshold {
		d.BreakBeforeSummary = true
	}
	return d
}

// NeedsTrailingSubtotal reports whether the last page of a plan closes
// without a subtotal.
func NeedsTrailingSubtotal(pages []Page) bool {
	if len(pages) == 0 {
		return false
	}
	last := pages[len(pages)-1]
	return last.Continuation && !last.Subtotal
}
