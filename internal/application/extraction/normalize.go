package extraction

import (
	"strings"

	"3tcapital/gstlens/internal/core/invoice"

	"github.com/shopspring/decimal"
)

// DefaultTaxTolerance is the absolute currency-unit slack allowed between the tax sum and the total.
const DefaultTaxTolerance = 2.0

// nullToken is the textual "no value" marker the oracle sometimes emits instead of JSON null.
const nullToken = "null"

// Normalizer applies GST rules to a validated record. It is pure and idempotent.
type Normalizer struct {
	tolerance decimal.Decimal
}

// NewNormalizer creates a Normalizer with the given absolute tax tolerance.
func NewNormalizer(tolerance float64) *Normalizer {
	return &Normalizer{tolerance: decimal.NewFromFloat(tolerance).Abs()}
}

// Normalize returns the sanitized copy of r. The steps run in a fixed order:
// GSTIN null collapse, GSTIN length check, place of supply, tax consistency, invoice type.
func (n *Normalizer) Normalize(r invoice.Record) invoice.Record {
	out := r.Clone()

	out.SellerGSTIN = collapseNull(out.SellerGSTIN)
	out.BuyerGSTIN = collapseNull(out.BuyerGSTIN)

	out.SellerGSTIN = sanitizeGSTIN(out.SellerGSTIN)
	out.BuyerGSTIN = sanitizeGSTIN(out.BuyerGSTIN)

	if out.SellerGSTIN != nil {
		pos := invoice.StateCode(*out.SellerGSTIN)
		out.PlaceOfSupply = &pos
	}

	out.Warning = n.consistencyWarning(out)

	if out.HasBuyerGSTIN() {
		out.Type = invoice.TypeB2B
	} else {
		out.Type = invoice.TypeB2C
	}

	return out
}

// TaxSum returns taxable_value + cgst + sgst + igst, treating absent amounts as zero.
func TaxSum(r invoice.Record) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range []*float64{r.TaxableValue, r.CGST, r.SGST, r.IGST} {
		if v != nil {
			sum = sum.Add(decimal.NewFromFloat(*v))
		}
	}
	return sum
}

// consistencyWarning is recomputed from the amounts on every pass so that the
// result does not depend on any warning the input already carried.
func (n *Normalizer) consistencyWarning(r invoice.Record) *string {
	if r.InvoiceTotal == nil {
		return nil
	}
	diff := TaxSum(r).Sub(decimal.NewFromFloat(*r.InvoiceTotal)).Abs()
	if diff.GreaterThan(n.tolerance) {
		w := invoice.TaxMismatchWarning
		return &w
	}
	return nil
}

func collapseNull(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, nullToken) {
		return nil
	}
	return s
}

func sanitizeGSTIN(s *string) *string {
	if s == nil || !invoice.IsGSTINShaped(*s) {
		return nil
	}
	return s
}
