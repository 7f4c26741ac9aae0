package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	coreextraction "3tcapital/gstlens/internal/core/extraction"
	"3tcapital/gstlens/internal/core/invoice"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "gst_invoice.json"

// ValidationError lists the field-level violations of an oracle answer.
type ValidationError struct {
	Fields []coreextraction.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return "invoice does not match schema: " + strings.Join(parts, "; ")
}

// Validator checks untyped documents against the invoice field schema.
// It is safe for concurrent use.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the invoice schema.
func NewValidator() (*Validator, error) {
	b, err := json.Marshal(invoice.JSONSchema())
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaResource, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate checks doc, a value produced by encoding/json, and maps it onto a Record.
// Types are checked but never coerced. Absent fields stay nil.
func (v *Validator) Validate(doc any) (invoice.Record, error) {
	if err := v.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return invoice.Record{}, &ValidationError{Fields: leafErrors(ve)}
		}
		return invoice.Record{}, fmt.Errorf("validate invoice: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return invoice.Record{}, &ValidationError{Fields: []coreextraction.FieldError{{Field: "$", Message: "expected object"}}}
	}

	rec := invoice.Record{
		InvoiceNumber:              stringField(obj, invoice.FieldInvoiceNumber),
		InvoiceDate:                stringField(obj, invoice.FieldInvoiceDate),
		SellerGSTIN:                stringField(obj, invoice.FieldSellerGSTIN),
		BuyerGSTIN:                 stringField(obj, invoice.FieldBuyerGSTIN),
		PlaceOfSupply:              stringField(obj, invoice.FieldPlaceOfSupply),
		TaxableValueBeforeDiscount: numberField(obj, invoice.FieldTaxableValueBeforeDiscount),
		TaxableValue:               numberField(obj, invoice.FieldTaxableValue),
		CGST:                       numberField(obj, invoice.FieldCGST),
		SGST:                       numberField(obj, invoice.FieldSGST),
		IGST:                       numberField(obj, invoice.FieldIGST),
		InvoiceTotal:               numberField(obj, invoice.FieldInvoiceTotal),
	}
	if t, ok := obj[invoice.FieldInvoiceType].(string); ok {
		rec.Type = invoice.Type(t)
	}

	return rec, nil
}

// leafErrors flattens the cause tree into one entry per offending location.
func leafErrors(ve *jsonschema.ValidationError) []coreextraction.FieldError {
	seen := make(map[coreextraction.FieldError]struct{})
	var out []coreextraction.FieldError

	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			fe := coreextraction.FieldError{Field: fieldName(e.InstanceLocation), Message: e.Message}
			if _, dup := seen[fe]; !dup {
				seen[fe] = struct{}{}
				out = append(out, fe)
			}
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)

	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func fieldName(instanceLocation string) string {
	name := strings.TrimPrefix(instanceLocation, "/")
	if name == "" {
		return "$"
	}
	return name
}

func stringField(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok {
		return nil
	}
	return &s
}

func numberField(obj map[string]any, key string) *float64 {
	switch n := obj[key].(type) {
	case float64:
		return &n
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return nil
		}
		return &f
	}
	return nil
}
