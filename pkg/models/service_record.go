package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"recipes/pkg/money"
)

// AmountTolerance is the largest accepted difference between a record's stated
// amount and the sum of its two streams.
var AmountTolerance = money.MustParse("0.05")

// ErrArithmeticInconsistency is returned when a service record's stated amount
// disagrees with the sum of its stream amounts beyond AmountTolerance.
var ErrArithmeticInconsistency = errors.New("stated amount disagrees with stream amounts")

// ServiceRecord is one billable tariff line.
//
// Stream A and stream B are the two parallel valuation components of a tariff
// position (AL and TL for TARMED). Each stream is valued as
// quantity x tax points x scaling factor x tax point value.
type ServiceRecord struct {
	Date       time.Time `json:"date"`
	TariffType int       `json:"tariff_type"` // e.g. 1 for TARMED, printed as "001"
	Code       string    `json:"code"`
	RefCode    string    `json:"ref_code,omitempty"`
	Session    int       `json:"session"`
	Text       string    `json:"text"`

	Quantity decimal.Decimal `json:"quantity"`

	AmountA     decimal.Decimal `json:"amount_a"`      // TP AL / price
	UnitFactorA decimal.Decimal `json:"unit_factor_a"` // f AL
	UnitValueA  decimal.Decimal `json:"unit_value_a"`  // TPW AL

	AmountB     decimal.Decimal `json:"amount_b"`      // TP TL
	UnitFactorB decimal.Decimal `json:"unit_factor_b"` // f TL
	UnitValueB  decimal.Decimal `json:"unit_value_b"`  // TPW TL

	Amount money.Amount `json:"amount"` // Stated total, printed as is
}

// TariffKey returns the tariff type as printed on the recipe ("001", "311", ...).
func (r ServiceRecord) TariffKey() string {
	return fmt.Sprintf("%03d", r.TariffType)
}

// StreamA returns quantity x AmountA x UnitFactorA x UnitValueA.
func (r ServiceRecord) StreamA() money.Amount {
	return money.New(r.Quantity.Mul(r.AmountA).Mul(r.UnitFactorA).Mul(r.UnitValueA))
}

// StreamB returns quantity x AmountB x UnitFactorB x UnitValueB.
func (r ServiceRecord) StreamB() money.Amount {
	return money.New(r.Quantity.Mul(r.AmountB).Mul(r.UnitFactorB).Mul(r.UnitValueB))
}

// TaxPointsA returns the scaled tax points of stream A.
func (r ServiceRecord) TaxPointsA() decimal.Decimal {
	return r.Quantity.Mul(r.AmountA).Mul(r.UnitFactorA)
}

// TaxPointsB returns the scaled tax points of stream B.
func (r ServiceRecord) TaxPointsB() decimal.Decimal {
	return r.Quantity.Mul(r.AmountB).Mul(r.UnitFactorB)
}

// TaxPoints returns the scaled tax points of both streams.
func (r ServiceRecord) TaxPoints() decimal.Decimal {
	return r.TaxPointsA().Add(r.TaxPointsB())
}

// Check verifies that the stated amount equals StreamA + StreamB within
// AmountTolerance. The returned error wraps ErrArithmeticInconsistency.
func (r ServiceRecord) Check() error {
	computed := r.StreamA().Add(r.StreamB())
	if r.Amount.Sub(computed).Abs().Cmp(AmountTolerance) > 0 {
		return &InconsistencyError{
			Code:     r.Code,
			Stated:   r.Amount,
			Computed: computed.RoundCents(),
		}
	}
	return nil
}

// InconsistencyError describes a service record whose stated amount does not
// match its streams. It is a data quality signal, not a rendering failure.
type InconsistencyError struct {
	Index    int // Position in Invoice.ServiceRecords
	Code     string
	Stated   money.Amount
	Computed money.Amount
}

// Error implements the error interface.
func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("service record %d (%s): stated amount %s, streams sum to %s",
		e.Index, e.Code, e.Stated.Format(), e.Computed.Format())
}

// Unwrap returns ErrArithmeticInconsistency.
func (e *InconsistencyError) Unwrap() error {
	return ErrArithmeticInconsistency
}

// CheckRecords checks every record of the invoice and returns one
// InconsistencyError per offending record, in record order.
func (inv *Invoice) CheckRecords() []*InconsistencyError {
	var found []*InconsistencyError
	for i, r := range inv.ServiceRecords {
		if err := r.Check(); err != nil {
			var ie *InconsistencyError
			if errors.As(err, &ie) {
				ie.Index = i
				found = append(found, ie)
			}
		}
	}
	return found
}
