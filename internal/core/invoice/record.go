package invoice

import "unicode/utf8"

// Type classifies an invoice by whether the buyer is a registered taxpayer.
type Type string

const (
	TypeB2B Type = "B2B"
	TypeB2C Type = "B2C"
)

// Valid reports whether t is one of the known invoice types.
func (t Type) Valid() bool {
	return t == TypeB2B || t == TypeB2C
}

// GSTINLength is the fixed length of a Goods and Services Tax Identification Number.
const GSTINLength = 15

// StateCodeLength is the length of the jurisdiction prefix of a GSTIN.
const StateCodeLength = 2

// TaxMismatchWarning is attached when the tax components do not add up to the invoice total.
const TaxMismatchWarning = "Tax mismatch"

// Record is the canonical extracted tax invoice.
// Every field except Type is nullable; a nil pointer means the value is absent.
type Record struct {
	InvoiceNumber              *string  `json:"invoice_number"`
	InvoiceDate                *string  `json:"invoice_date"` // DD.MM.YYYY, carried through unvalidated
	SellerGSTIN                *string  `json:"seller_gstin"`
	BuyerGSTIN                 *string  `json:"buyer_gstin"`
	Type                       Type     `json:"invoice_type"`
	PlaceOfSupply              *string  `json:"pos"`
	TaxableValueBeforeDiscount *float64 `json:"taxable_value_before_discount"`
	TaxableValue               *float64 `json:"taxable_value"`
	CGST                       *float64 `json:"cgst"`
	SGST                       *float64 `json:"sgst"`
	IGST                       *float64 `json:"igst"`
	InvoiceTotal               *float64 `json:"invoice_total"`
	Warning                    *string  `json:"warning,omitempty"`
}

// HasBuyerGSTIN reports whether the buyer carries a GSTIN.
func (r Record) HasBuyerGSTIN() bool {
	return r.BuyerGSTIN != nil
}

// Clone returns a deep copy so callers can mutate the result without aliasing r.
func (r Record) Clone() Record {
	out := r
	out.InvoiceNumber = cloneString(r.InvoiceNumber)
	out.InvoiceDate = cloneString(r.InvoiceDate)
	out.SellerGSTIN = cloneString(r.SellerGSTIN)
	out.BuyerGSTIN = cloneString(r.BuyerGSTIN)
	out.PlaceOfSupply = cloneString(r.PlaceOfSupply)
	out.TaxableValueBeforeDiscount = cloneFloat(r.TaxableValueBeforeDiscount)
	out.TaxableValue = cloneFloat(r.TaxableValue)
	out.CGST = cloneFloat(r.CGST)
	out.SGST = cloneFloat(r.SGST)
	out.IGST = cloneFloat(r.IGST)
	out.InvoiceTotal = cloneFloat(r.InvoiceTotal)
	out.Warning = cloneString(r.Warning)
	return out
}

// IsGSTINShaped reports whether s has exactly the length of a GSTIN.
// The format itself (state code, PAN, checksum) is not verified.
func IsGSTINShaped(s string) bool {
	return utf8.RuneCountInString(s) == GSTINLength
}

// StateCode returns the jurisdiction prefix of a GSTIN.
func StateCode(gstin string) string {
	runes := []rune(gstin)
	if len(runes) < StateCodeLength {
		return string(runes)
	}
	return string(runes[:StateCodeLength])
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
