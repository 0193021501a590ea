package paginate

import (
	"errors"
	"reflect"
	"testing"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []Page
	}{
		{
			name: "No records",
			n:    0,
			want: []Page{{Number: 1, Subtotal: true, Last: true}},
		},
		{
			name: "Single record",
			n:    1,
			want: []Page{{Number: 1, End: 1, Subtotal: true, Last: true}},
		},
		{
			name: "Full first page",
			n:    17,
			want: []Page{{Number: 1, End: 17, Subtotal: true, Last: true}},
		},
		{
			name: "One record on a continuation page",
			n:    18,
			want: []Page{
				{Number: 1, End: 17, Subtotal: true},
				{Number: 2, Start: 17, End: 18, Continuation: true, Last: true},
			},
		},
		{
			name: "Full continuation page",
			n:    44,
			want: []Page{
				{Number: 1, End: 17, Subtotal: true},
				{Number: 2, Start: 17, End: 44, Continuation: true, Last: true},
			},
		},
		{
			name: "Three continuation pages",
			n:    72,
			want: []Page{
				{Number: 1, End: 17, Subtotal: true},
				{Number: 2, Start: 17, End: 44, Subtotal: true, Continuation: true},
				{Number: 3, Start: 44, End: 71, Subtotal: true, Continuation: true},
				{Number: 4, Start: 71, End: 72, Continuation: true, Last: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.n)
			if err != nil {
				t.Fatalf("Plan(%d): %v", tt.n, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Plan(%d):\n got %+v\nwant %+v", tt.n, got, tt.want)
			}
		})
	}
}

func TestPlanCompleteness(t *testing.T) {
	for n := 0; n <= 200; n++ {
		pages, err := Plan(n)
		if err != nil {
			t.Fatalf("Plan(%d): %v", n, err)
		}

		seen := make([]int, n)
		for _, p := range pages {
			for i := p.Start; i < p.End; i++ {
				seen[i]++
			}
		}
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("Plan(%d): record %d placed %d times", n, i, c)
			}
		}

		if !pages[0].Subtotal {
			t.Errorf("Plan(%d): first page has no subtotal", n)
		}
		if last := pages[len(pages)-1]; !last.Last {
			t.Errorf("Plan(%d): last page not marked", n)
		}

		// Continuation batches follow Chunk over the records after the first page.
		if n > FirstPageCapacity {
			chunks := Chunk(n-FirstPageCapacity, ContinuationCapacity)
			if len(chunks) != len(pages)-1 {
				t.Fatalf("Plan(%d): %d continuation pages, want %d", n, len(pages)-1, len(chunks))
			}
			for i, c := range chunks {
				p := pages[i+1]
				if p.Start != c.Start+FirstPageCapacity || p.End != c.End+FirstPageCapacity {
					t.Errorf("Plan(%d): page %d is [%d,%d), want [%d,%d)", n, p.Number, p.Start, p.End,
						c.Start+FirstPageCapacity, c.End+FirstPageCapacity)
				}
				if wantSub := i < len(chunks)-1; p.Subtotal != wantSub {
					t.Errorf("Plan(%d): page %d subtotal %v, want %v", n, p.Number, p.Subtotal, wantSub)
				}
			}
		} else if len(pages) != 1 {
			t.Errorf("Plan(%d): got %d pages, want 1", n, len(pages))
		}
	}
}

func TestPlanNegative(t *testing.T) {
	if _, err := Plan(-1); err == nil {
		t.Error("expected error for negative count")
	}
}

func TestVerifyDetectsGaps(t *testing.T) {
	pages := []Page{{Number: 1, End: 10}, {Number: 2, Start: 11, End: 20, Continuation: true}}

	err := verify(pages, 20)
	var ce *CapacityError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want CapacityError", err)
	}
	if ce.Placed != 10 || ce.Total != 20 {
		t.Errorf("got %+v", ce)
	}
	if !errors.Is(err, ErrCapacityInvariant) {
		t.Error("error does not match ErrCapacityInvariant")
	}

	if err := verify([]Page{{Number: 1, End: 18}}, 18); err == nil {
		t.Error("expected error for overfull first page")
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name      string
		state     State
		placed    int
		remaining int
		final     bool
		want      Action
	}{
		{"First page with room", FillingFirstPage, 0, 5, false, PlaceItem},
		{"First page full", FillingFirstPage, 17, 5, false, PlaceSubtotal},
		{"First page out of records", FillingFirstPage, 3, 0, false, PlaceSubtotal},
		{"Empty document", FillingFirstPage, 0, 0, false, PlaceSubtotal},
		{"Continuation with room", FillingContinuationPage, 10, 1, true, PlaceItem},
		{"Continuation full", FillingContinuationPage, 27, 4, false, PlaceSubtotal},
		{"Final batch done", FillingContinuationPage, 12, 0, true, Finish},
		{"Done", Done, 0, 0, true, Finish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Step(tt.state, tt.placed, tt.remaining, tt.final); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	if got := StepAfterSubtotal(3); got != BreakPage {
		t.Errorf("StepAfterSubtotal(3): got %s", got)
	}
	if got := StepAfterSubtotal(0); got != Finish {
		t.Errorf("StepAfterSubtotal(0): got %s", got)
	}
	if got := Next(FillingFirstPage, BreakPage); got != FillingContinuationPage {
		t.Errorf("Next after break: got %s", got)
	}
}

func TestChunk(t *testing.T) {
	tests := []struct {
		n, size int
		want    []Range
	}{
		{0, 27, nil},
		{1, 27, []Range{{0, 1}}},
		{27, 27, []Range{{0, 27}}},
		{28, 27, []Range{{0, 27}, {27, 28}}},
		{55, 27, []Range{{0, 27}, {27, 54}, {54, 55}}},
	}

	for _, tt := range tests {
		if got := Chunk(tt.n, tt.size); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Chunk(%d, %d): got %v, want %v", tt.n, tt.size, got, tt.want)
		}
	}
}

func TestPlaceFooter(t *testing.T) {
	tests := []struct {
		name string
		in   FooterInput
		want FooterDecision
	}{
		{
			name: "Fits",
			in:   FooterInput{Cursor: 120, Threshold: 213, SubtotalHeight: 6, NeedsTrailingSubtotal: true},
			want: FooterDecision{},
		},
		{
			name: "Exactly at threshold",
			in:   FooterInput{Cursor: 213, Threshold: 213, SubtotalHeight: 6},
			want: FooterDecision{},
		},
		{
			name: "Overflow after subtotaled page",
			in:   FooterInput{Cursor: 230, Threshold: 213, SubtotalHeight: 6},
			want: FooterDecision{BreakBeforeSummary: true},
		},
		{
			name: "Overflow on final continuation batch",
			in:   FooterInput{Cursor: 230, Threshold: 213, SubtotalHeight: 6, NeedsTrailingSubtotal: true},
			want: FooterDecision{TrailingSubtotal: true, BreakBeforeSummary: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlaceFooter(tt.in)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if again := PlaceFooter(tt.in); again != got {
				t.Error("PlaceFooter is not deterministic")
			}
		})
	}
}

func TestNeedsTrailingSubtotal(t *testing.T) {
	one, _ := Plan(5)
	if NeedsTrailingSubtotal(one) {
		t.Error("single page plan has its own subtotal")
	}
	two, _ := Plan(20)
	if !NeedsTrailingSubtotal(two) {
		t.Error("final continuation batch has no subtotal")
	}
	if NeedsTrailingSubtotal(nil) {
		t.Error("empty plan")
	}
}
