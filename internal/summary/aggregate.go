package summary

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"recipes/pkg/models"
	"recipes/pkg/money"
)

// ErrPartition is returned when bucket totals do not add up to the grand total.
var ErrPartition = errors.New("bucket totals do not add up to the grand total")

// Bucket is one category of the closing summary.
type Bucket struct {
	Key       Key
	Label     string
	Amount    money.Amount
	TaxPoints decimal.Decimal
	Records   int // Number of records contributing to the bucket
}

// Summary is the closing summary of an invoice.
type Summary struct {
	Buckets          []Bucket // In Order
	GrandTotal       money.Amount
	ObligationAmount money.Amount // Supplied by the invoice, never recomputed
}

// Bucket returns the bucket with key k. Unknown keys yield an empty bucket.
func (s *Summary) Bucket(k Key) Bucket {
	for _, b := range s.Buckets {
		if b.Key == k {
			return b
		}
	}
	return Bucket{Key: k, Label: Labels[k]}
}

// Verify checks the partition invariant: the bucket amounts add up exactly to
// the grand total.
func (s *Summary) Verify() error {
	total := money.Zero()
	for _, b := range s.Buckets {
		total = total.Add(b.Amount)
	}
	if !total.Equal(s.GrandTotal) {
		return fmt.Errorf("%w: buckets %s, grand total %s", ErrPartition, total.Format(), s.GrandTotal.Format())
	}
	return nil
}

// Aggregate buckets records according to table. Every record lands in exactly
// one bucket, or in two when its tariff is split into streams; in that case
// stream A contributes its amount rounded to cents and stream B the remainder
// of the stated amount, so the stated amount is never lost or duplicated.
func Aggregate(records []models.ServiceRecord, table Table) *Summary {
	amounts := make(map[Key]money.Amount, len(Order))
	points := make(map[Key]decimal.Decimal, len(Order))
	counts := make(map[Key]int, len(Order))
	grand := money.Zero()

	add := func(k Key, a money.Amount, tp decimal.Decimal) {
		amounts[k] = amounts[k].Add(a)
		points[k] = points[k].Add(tp)
		counts[k]++
	}

	for _, r := range records {
		grand = grand.Add(r.Amount)

		m, listed := table.Lookup(r.TariffKey())
		switch {
		case !listed:
			add(m.Bucket, r.Amount, decimal.Zero)
		case m.SplitB != "":
			a := r.StreamA().RoundCents()
			add(m.Bucket, a, r.TaxPointsA())
			add(m.SplitB, r.Amount.Sub(a), r.TaxPointsB())
		default:
			add(m.Bucket, r.Amount, r.TaxPoints())
		}
	}

	s := &Summary{GrandTotal: grand}
	for _, k := range Order {
		s.Buckets = append(s.Buckets, Bucket{
			Key:       k,
			Label:     Labels[k],
			Amount:    amounts[k],
			TaxPoints: points[k],
			Records:   counts[k],
		})
	}
	return s
}

// ForInvoice aggregates the invoice's records with DefaultTable and attaches
// the invoice's obligation amount.
func ForInvoice(inv *models.Invoice) *Summary {
	s := Aggregate(inv.ServiceRecords, DefaultTable)
	s.ObligationAmount = inv.ObligationAmount
	return s
}
