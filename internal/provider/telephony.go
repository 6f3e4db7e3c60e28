package provider

import (
	"context"
	"time"
)

// Telephony manages vendor phone numbers and outbound call placement.
type Telephony interface {
	Adapter

	ListPhoneNumbers(ctx context.Context) ([]PhoneNumber, error)
	CreatePhoneNumber(ctx context.Context, req CreatePhoneNumberRequest) (PhoneNumber, error)
	DeletePhoneNumber(ctx context.Context, externalID string) error

	PlaceCall(ctx context.Context, req PlaceCallRequest) (CallRef, error)
}

// PhoneNumber is a vendor-provisioned number.
type PhoneNumber struct {
	ExternalID string `json:"external_id"`
	// Number is E.164 where possible.
	Number string `json:"number"`
	Label  string `json:"label,omitempty"`
	Active bool   `json:"active"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

type CreatePhoneNumberRequest struct {
	// CountryISO2 selects the number pool; vendor picks when DesiredNumber
	// is empty.
	CountryISO2   string `json:"country_iso2,omitempty"`
	DesiredNumber string `json:"desired_number,omitempty"`
	Label         string `json:"label,omitempty"`
}

type PlaceCallRequest struct {
	AgentExternalID       string `json:"agent_external_id"`
	PhoneNumberExternalID string `json:"phone_number_external_id,omitempty"`
	// To is the callee, E.164.
	To string `json:"to"`
	// Metadata is optional vendor JSON.
	Metadata string `json:"metadata,omitempty"`
}

// CallRef identifies a placed call at the vendor.
type CallRef struct {
	ExternalID string `json:"external_id"`
	Status     string `json:"status,omitempty"`
}
