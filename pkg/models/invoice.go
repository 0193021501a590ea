package models

import (
	"strings"
	"time"

	"recipes/pkg/money"
)

// Invoice is the read-only aggregate a recipe is rendered from. It is built
// entirely by the domain layer; the layout engine never mutates it.
type Invoice struct {
	// Core identifiers
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`       // Issue date
	ValueDate time.Time `json:"value_date"` // Rechnungs-/Mahndatum
	UpdatedAt time.Time `json:"updated_at"` // Printed in the "Dokument" row

	// Treatment period and place
	DateBegin time.Time `json:"date_begin"`
	DateEnd   time.Time `json:"date_end"`
	PlaceType string    `json:"place_type"` // Erbringungsort, e.g. "Praxis"

	Remark string `json:"remark,omitempty"`
	Copy   bool   `json:"copy,omitempty"` // Rechnungskopie

	// Pre-computed by external services
	PaymentReference string       `json:"payment_reference"` // ESR coding line
	ObligationAmount money.Amount `json:"obligation_amount"` // Amount legally owed (Pflichtleistung)

	// Relations
	Biller         *Party    `json:"biller"`
	Provider       *Party    `json:"provider"`
	Referrer       *Party    `json:"referrer,omitempty"`
	Patient        *Patient  `json:"patient"`
	BillingAddress *Address  `json:"billing_address,omitempty"` // Address window, defaults to the patient
	Law            *Law      `json:"law"`
	Treatment      Treatment `json:"treatment"`
	Tiers          Tiers     `json:"tiers"`

	ServiceRecords []ServiceRecord `json:"service_records"`
}

// Amount returns the sum of the stated amounts of all service records.
func (inv *Invoice) Amount() money.Amount {
	total := money.Zero()
	for _, r := range inv.ServiceRecords {
		total = total.Add(r.Amount)
	}
	return total
}

// AddressWindow returns the address printed in the envelope window.
func (inv *Invoice) AddressWindow() Address {
	if inv.BillingAddress != nil {
		return *inv.BillingAddress
	}
	if inv.Patient != nil {
		return inv.Patient.Address
	}
	return Address{}
}

// Party is a biller, provider or referrer identified by EAN and ZSR numbers.
type Party struct {
	EANParty string  `json:"ean_party"`
	ZSR      string  `json:"zsr"`
	Address  Address `json:"address"`
}

// Address is a postal address with contact details (vCard subset).
type Address struct {
	Honorific       string `json:"honorific,omitempty"`
	FamilyName      string `json:"family_name"`
	GivenName       string `json:"given_name"`
	ExtendedAddress string `json:"extended_address,omitempty"`
	Street          string `json:"street"`
	PostalCode      string `json:"postal_code"`
	Locality        string `json:"locality"`
	Phone           string `json:"phone,omitempty"`
	Fax             string `json:"fax,omitempty"`
	Email           string `json:"email,omitempty"`
}

// FullName returns "GivenName FamilyName".
func (a Address) FullName() string {
	return joinNonEmpty(" ", a.GivenName, a.FamilyName)
}

// FullAddress joins name, street and locality with sep.
func (a Address) FullAddress(sep string) string {
	return joinNonEmpty(sep, a.FullName(), a.ExtendedAddress, a.Street, joinNonEmpty(" ", a.PostalCode, a.Locality))
}

// Contact joins the phone, fax and email entries with sep.
func (a Address) Contact(sep string) string {
	var parts []string
	if a.Phone != "" {
		parts = append(parts, "Tel. "+a.Phone)
	}
	if a.Fax != "" {
		parts = append(parts, "Fax "+a.Fax)
	}
	if a.Email != "" {
		parts = append(parts, a.Email)
	}
	return strings.Join(parts, sep)
}

// Lines returns the address as printed in the envelope window.
func (a Address) Lines() []string {
	var lines []string
	for _, l := range []string{a.Honorific, a.FullName(), a.ExtendedAddress, a.Street, joinNonEmpty(" ", a.PostalCode, a.Locality)} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Patient is the insured person.
type Patient struct {
	Address
	BirthDate time.Time `json:"birth_date"`
	Sex       string    `json:"sex"`
	EANParty  string    `json:"ean_party,omitempty"`
}

// Law is the insurance law and case context (KVG, UVG, IVG, ...).
type Law struct {
	Name      string `json:"name"`
	CaseID    string `json:"case_id,omitempty"`
	SSN       string `json:"ssn,omitempty"`
	InsuredID string `json:"insured_id,omitempty"`
}

// Treatment carries the medical context printed in the header.
type Treatment struct {
	Canton    string      `json:"canton"`
	Reason    string      `json:"reason"`
	Diagnoses []Diagnosis `json:"diagnoses,omitempty"`
}

// Diagnosis is one coded diagnosis.
type Diagnosis struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

// DiagnosisTypes returns the distinct diagnosis types in order of appearance.
func (t Treatment) DiagnosisTypes() []string {
	seen := make(map[string]bool)
	var types []string
	for _, d := range t.Diagnoses {
		if !seen[d.Type] {
			seen[d.Type] = true
			types = append(types, d.Type)
		}
	}
	return types
}

// DiagnosisCodes returns all diagnosis codes.
func (t Treatment) DiagnosisCodes() []string {
	codes := make([]string, 0, len(t.Diagnoses))
	for _, d := range t.Diagnoses {
		codes = append(codes, d.Code)
	}
	return codes
}

// Tiers describes who pays the provider ("Tiers Garant", "Tiers Payant").
type Tiers struct {
	Name string `json:"name"`
}

func joinNonEmpty(sep string, parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
