package vapi

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"voicedash/internal/provider"
)

type phoneNumber struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Name      string    `json:"name,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (w phoneNumber) toPhoneNumber() provider.PhoneNumber {
	return provider.PhoneNumber{
		ExternalID: w.ID,
		Number:     w.Number,
		Label:      w.Name,
		Active:     w.Status != "inactive",
		CreatedAt:  w.CreatedAt,
	}
}

func (a *Adapter) ListPhoneNumbers(ctx context.Context) ([]provider.PhoneNumber, error) {
	var ws []phoneNumber
	if err := a.do(ctx, "ListPhoneNumbers", http.MethodGet, "/phone-number", nil, &ws); err != nil {
		return nil, err
	}
	out := make([]provider.PhoneNumber, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.toPhoneNumber())
	}
	return out, nil
}

func (a *Adapter) CreatePhoneNumber(ctx context.Context, req provider.CreatePhoneNumberRequest) (provider.PhoneNumber, error) {
	body := map[string]any{}
	if req.CountryISO2 != "" {
		body["country"] = req.CountryISO2
	}
	if req.DesiredNumber != "" {
		body["number"] = req.DesiredNumber
	}
	if req.Label != "" {
		body["name"] = req.Label
	}
	var w phoneNumber
	if err := a.do(ctx, "CreatePhoneNumber", http.MethodPost, "/phone-number", body, &w); err != nil {
		return provider.PhoneNumber{}, err
	}
	return w.toPhoneNumber(), nil
}

func (a *Adapter) DeletePhoneNumber(ctx context.Context, externalID string) error {
	return a.do(ctx, "DeletePhoneNumber", http.MethodDelete, "/phone-number/"+url.PathEscape(externalID), nil, nil)
}

func (a *Adapter) PlaceCall(ctx context.Context, req provider.PlaceCallRequest) (provider.CallRef, error) {
	body := map[string]any{
		"assistantId": req.AgentExternalID,
		"customer":    map[string]string{"number": req.To},
	}
	if req.PhoneNumberExternalID != "" {
		body["phoneNumberId"] = req.PhoneNumberExternalID
	}
	var w call
	if err := a.do(ctx, "PlaceCall", http.MethodPost, "/call", body, &w); err != nil {
		return provider.CallRef{}, err
	}
	return provider.CallRef{ExternalID: w.ID, Status: w.Status}, nil
}
