// Package summary buckets the service records of an invoice into the tariff
// categories printed in the closing summary of an insurance recipe.
package summary

import "fmt"

// Key identifies a bucket.
type Key string

// Buckets printed on the recipe.
const (
	TarmedAL   Key = "tarmed_al" // Stream A of tariff 001
	TarmedTL   Key = "tarmed_tl" // Stream B of tariff 001
	Physio     Key = "physio"
	MiGeL      Key = "migel"
	Laboratory Key = "laboratory"
	Medication Key = "medication"
	Other      Key = "other"
	Cantonal   Key = "cantonal"
)

// Order is the fixed order buckets are reported in.
var Order = []Key{TarmedAL, TarmedTL, Physio, Laboratory, MiGeL, Medication, Other, Cantonal}

// Labels are the printed bucket names.
var Labels = map[Key]string{
	TarmedAL:   "Tarmed AL",
	TarmedTL:   "Tarmed TL",
	Physio:     "Physio",
	MiGeL:      "MiGeL",
	Laboratory: "Labor",
	Medication: "Medi",
	Other:      "Übrige",
	Cantonal:   "Kantonal",
}

// Mapping routes the records of one tariff type. When SplitB is set, stream A
// goes to Bucket and stream B to SplitB; otherwise the whole record goes to Bucket.
type Mapping struct {
	Bucket Key
	SplitB Key
}

// Table maps tariff type keys ("001", "311", ...) to buckets. Records whose
// tariff type is not listed go to Fallback and carry no tax points.
type Table struct {
	Codes    map[string]Mapping
	Fallback Key
}

// DefaultTable is the mapping of the supported recipe layout.
var DefaultTable = Table{
	Codes: map[string]Mapping{
		"001": {Bucket: TarmedAL, SplitB: TarmedTL},
		"311": {Bucket: Physio},
		"452": {Bucket: MiGeL},
		"400": {Bucket: Medication},
		"316": {Bucket: Laboratory},
		"317": {Bucket: Laboratory},
	},
	Fallback: Other,
}

// Lookup returns the mapping for a tariff key and whether it was listed.
func (t Table) Lookup(tariff string) (Mapping, bool) {
	m, ok := t.Codes[tariff]
	if !ok {
		return Mapping{Bucket: t.Fallback}, false
	}
	return m, true
}

// Validate checks that every bucket the table routes to is a known bucket.
func (t Table) Validate() error {
	known := make(map[Key]bool, len(Order))
	for _, k := range Order {
		known[k] = true
	}
	if !known[t.Fallback] {
		return fmt.Errorf("summary: unknown fallback bucket %q", t.Fallback)
	}
	for code, m := range t.Codes {
		if !known[m.Bucket] {
			return fmt.Errorf("summary: tariff %s routes to unknown bucket %q", code, m.Bucket)
		}
		if m.SplitB != "" && !known[m.SplitB] {
			return fmt.Errorf("summary: tariff %s routes stream B to unknown bucket %q", code, m.SplitB)
		}
	}
	return nil
}
