package invoice

// Field names of the extracted invoice document, in the order they are presented to the oracle.
const (
	FieldInvoiceNumber              = "invoice_number"
	FieldInvoiceDate                = "invoice_date"
	FieldSellerGSTIN                = "seller_gstin"
	FieldBuyerGSTIN                 = "buyer_gstin"
	FieldInvoiceType                = "invoice_type"
	FieldPlaceOfSupply              = "pos"
	FieldTaxableValueBeforeDiscount = "taxable_value_before_discount"
	FieldTaxableValue               = "taxable_value"
	FieldCGST                       = "cgst"
	FieldSGST                       = "sgst"
	FieldIGST                       = "igst"
	FieldInvoiceTotal               = "invoice_total"
)

// StringFields are the nullable text fields of the schema.
var StringFields = []string{
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldSellerGSTIN,
	FieldBuyerGSTIN,
	FieldPlaceOfSupply,
}

// NumberFields are the nullable amount fields of the schema.
var NumberFields = []string{
	FieldTaxableValueBeforeDiscount,
	FieldTaxableValue,
	FieldCGST,
	FieldSGST,
	FieldIGST,
	FieldInvoiceTotal,
}

// FieldOrder lists every schema field in presentation order.
var FieldOrder = []string{
	FieldInvoiceNumber,
	FieldInvoiceDate,
	FieldSellerGSTIN,
	FieldBuyerGSTIN,
	FieldInvoiceType,
	FieldPlaceOfSupply,
	FieldTaxableValueBeforeDiscount,
	FieldTaxableValue,
	FieldCGST,
	FieldSGST,
	FieldIGST,
	FieldInvoiceTotal,
}

// JSONSchema returns the output contract of the extraction oracle as a JSON Schema
// (draft 2020-12) document. The same document constrains the oracle and validates its answer.
// Unknown properties are tolerated; absence of any field is not an error.
func JSONSchema() map[string]any {
	props := make(map[string]any, len(FieldOrder))
	for _, f := range StringFields {
		props[f] = map[string]any{"type": []string{"string", "null"}}
	}
	for _, f := range NumberFields {
		props[f] = map[string]any{"type": []string{"number", "null"}}
	}
	props[FieldInvoiceType] = map[string]any{
		"type": "string",
		"enum": []string{string(TypeB2B), string(TypeB2C)},
	}

	return map[string]any{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"title":      "GSTInvoice",
		"type":       "object",
		"properties": props,
	}
}
