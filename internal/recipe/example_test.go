package recipe_test

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"recipes/internal/canvas/canvastest"
	"recipes/internal/recipe"
	"recipes/internal/summary"
	"recipes/pkg/models"
	"recipes/pkg/money"
)

// Example renders a small invoice on the recording canvas and prints the
// closing summary.
func Example() {
	inv := &models.Invoice{
		ID:       "2024-0001",
		Biller:   &models.Party{EANParty: "7601000000001"},
		Provider: &models.Party{EANParty: "7601000000001"},
		Patient:  &models.Patient{Address: models.Address{GivenName: "Hans", FamilyName: "Muster"}},
		Law:      &models.Law{Name: "KVG"},
		ServiceRecords: []models.ServiceRecord{
			{
				TariffType:  1,
				Code:        "00.0010",
				Quantity:    decimal.NewFromInt(1),
				AmountA:     decimal.RequireFromString("9.57"),
				UnitFactorA: decimal.NewFromInt(1),
				UnitValueA:  decimal.RequireFromString("0.89"),
				AmountB:     decimal.RequireFromString("8.19"),
				UnitFactorB: decimal.NewFromInt(1),
				UnitValueB:  decimal.RequireFromString("0.89"),
				Amount:      money.MustParse("15.81"),
			},
			{
				TariffType:  311,
				Code:        "7301",
				Quantity:    decimal.NewFromInt(1),
				AmountA:     decimal.RequireFromString("48"),
				UnitFactorA: decimal.NewFromInt(1),
				UnitValueA:  decimal.NewFromInt(1),
				Amount:      money.MustParse("48.00"),
			},
		},
	}

	c := canvastest.New(recipe.A4.Width, recipe.A4.Height)
	report, err := recipe.Render(inv, c)
	if err != nil {
		log.Fatalf("Failed to render recipe: %v", err)
	}
	c.Finish()

	for _, k := range []summary.Key{summary.TarmedAL, summary.TarmedTL, summary.Physio} {
		b := report.Summary.Bucket(k)
		fmt.Printf("%-9s %6s\n", b.Label, b.Amount.Format())
	}
	fmt.Println("Total    ", report.Summary.GrandTotal.CurrencyRound().Format())
	fmt.Println("Pages    ", report.Pages)
	// Output:
	// Tarmed AL   8.52
	// Tarmed TL   7.29
	// Physio     48.00
	// Total     63.80
	// Pages     1
}
