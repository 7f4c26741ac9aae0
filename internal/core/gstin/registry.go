package gstin

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the registry has no taxpayer for a GSTIN.
var ErrNotFound = errors.New("gstin not found")

// Registry defines the lookup contract of the external GST taxpayer registry.
type Registry interface {
	// LookupGST returns the registered taxpayer details for gstin, or ErrNotFound.
	LookupGST(ctx context.Context, gstin string) (*Info, error)
}

// Info represents the public registration details of a taxpayer.
type Info struct {
	GSTIN            string `json:"gstin"`
	LegalName        string `json:"legal_name"`
	TradeName        string `json:"trade_name,omitempty"`
	Status           string `json:"status,omitempty"`
	TaxpayerType     string `json:"taxpayer_type,omitempty"`
	StateCode        string `json:"state_code,omitempty"`
	State            string `json:"state,omitempty"`
	RegistrationDate string `json:"registration_date,omitempty"`
	Address          string `json:"address,omitempty"`
}
