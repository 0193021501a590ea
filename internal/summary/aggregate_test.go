package summary

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"recipes/pkg/models"
	"recipes/pkg/money"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func record(tariff int, amount string) models.ServiceRecord {
	return models.ServiceRecord{
		TariffType:  tariff,
		Code:        "X",
		Quantity:    dec("1"),
		AmountA:     dec(amount),
		UnitFactorA: dec("1"),
		UnitValueA:  dec("1"),
		Amount:      money.MustParse(amount),
	}
}

func tarmed(amount string) models.ServiceRecord {
	// Stream A 8.5173, stream B 7.2891
	return models.ServiceRecord{
		TariffType:  1,
		Code:        "00.0010",
		Quantity:    dec("1"),
		AmountA:     dec("9.57"),
		UnitFactorA: dec("1"),
		UnitValueA:  dec("0.89"),
		AmountB:     dec("8.19"),
		UnitFactorB: dec("1"),
		UnitValueB:  dec("0.89"),
		Amount:      money.MustParse(amount),
	}
}

func TestDefaultTableValid(t *testing.T) {
	if err := DefaultTable.Validate(); err != nil {
		t.Fatalf("DefaultTable: %v", err)
	}

	bad := Table{Codes: map[string]Mapping{"999": {Bucket: "nope"}}, Fallback: Other}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown bucket")
	}
}

func TestAggregateBuckets(t *testing.T) {
	records := []models.ServiceRecord{
		record(311, "48.00"),
		record(452, "12.50"),
		record(400, "7.35"),
		record(316, "10.00"),
		record(317, "5.00"),
		record(999, "3.20"),
	}

	s := Aggregate(records, DefaultTable)

	tests := []struct {
		key  Key
		want string
		n    int
	}{
		{Physio, "48.00", 1},
		{MiGeL, "12.50", 1},
		{Medication, "7.35", 1},
		{Laboratory, "15.00", 2},
		{Other, "3.20", 1},
		{TarmedAL, "0.00", 0},
		{TarmedTL, "0.00", 0},
		{Cantonal, "0.00", 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			b := s.Bucket(tt.key)
			if b.Amount.Format() != tt.want {
				t.Errorf("amount: got %s, want %s", b.Amount.Format(), tt.want)
			}
			if b.Records != tt.n {
				t.Errorf("records: got %d, want %d", b.Records, tt.n)
			}
		})
	}

	if got := s.Bucket(Other).TaxPoints; !got.IsZero() {
		t.Errorf("other bucket tax points: got %s, want 0", got)
	}
	if got := s.GrandTotal.Format(); got != "86.05" {
		t.Errorf("grand total: got %s", got)
	}
	if err := s.Verify(); err != nil {
		t.Error(err)
	}
}

func TestAggregateTarmedSplit(t *testing.T) {
	s := Aggregate([]models.ServiceRecord{tarmed("15.81")}, DefaultTable)

	al := s.Bucket(TarmedAL)
	tl := s.Bucket(TarmedTL)

	if al.Amount.Format() != "8.52" {
		t.Errorf("AL: got %s, want 8.52", al.Amount.Format())
	}
	if tl.Amount.Format() != "7.29" {
		t.Errorf("TL: got %s, want 7.29", tl.Amount.Format())
	}
	if !al.TaxPoints.Equal(dec("9.57")) || !tl.TaxPoints.Equal(dec("8.19")) {
		t.Errorf("tax points: AL %s, TL %s", al.TaxPoints, tl.TaxPoints)
	}
	if err := s.Verify(); err != nil {
		t.Error(err)
	}
}

func TestAggregateSplitKeepsStatedAmount(t *testing.T) {
	// The stated amount disagrees with the streams; stream B absorbs the difference.
	s := Aggregate([]models.ServiceRecord{tarmed("20.00")}, DefaultTable)

	if got := s.Bucket(TarmedTL).Amount.Format(); got != "11.48" {
		t.Errorf("TL: got %s, want 11.48", got)
	}
	if err := s.Verify(); err != nil {
		t.Error(err)
	}
}

func TestAggregatePartitionProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tariffs := []int{1, 311, 452, 400, 316, 317, 590, 999}

	for i := 0; i < 50; i++ {
		var records []models.ServiceRecord
		n := rng.Intn(40)
		for j := 0; j < n; j++ {
			tariff := tariffs[rng.Intn(len(tariffs))]
			amount := money.FromCents(int64(rng.Intn(100000))).Format()
			if tariff == 1 {
				records = append(records, tarmed(amount))
			} else {
				records = append(records, record(tariff, amount))
			}
		}

		s := Aggregate(records, DefaultTable)
		if err := s.Verify(); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}

		// Order independence
		shuffled := append([]models.ServiceRecord(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		other := Aggregate(shuffled, DefaultTable)
		for _, k := range Order {
			if !s.Bucket(k).Amount.Equal(other.Bucket(k).Amount) {
				t.Fatalf("run %d: bucket %s depends on record order", i, k)
			}
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, DefaultTable)

	if len(s.Buckets) != len(Order) {
		t.Fatalf("buckets: got %d, want %d", len(s.Buckets), len(Order))
	}
	for _, b := range s.Buckets {
		if !b.Amount.IsZero() {
			t.Errorf("%s: got %s, want 0.00", b.Key, b.Amount.Format())
		}
	}
	if !s.GrandTotal.IsZero() {
		t.Errorf("grand total: got %s", s.GrandTotal.Format())
	}
}

func TestForInvoiceCopiesObligation(t *testing.T) {
	inv := &models.Invoice{
		ObligationAmount: money.MustParse("42.00"),
		ServiceRecords:   []models.ServiceRecord{record(311, "60.00")},
	}

	s := ForInvoice(inv)
	if got := s.ObligationAmount.Format(); got != "42.00" {
		t.Errorf("obligation: got %s, want 42.00", got)
	}
	if got := s.GrandTotal.Format(); got != "60.00" {
		t.Errorf("grand total: got %s", got)
	}
}

func TestVerifyDetectsBrokenPartition(t *testing.T) {
	s := Aggregate([]models.ServiceRecord{record(311, "10.00")}, DefaultTable)
	s.GrandTotal = money.MustParse("10.01")

	if err := s.Verify(); !errors.Is(err, ErrPartition) {
		t.Errorf("got %v, want ErrPartition", err)
	}
}
