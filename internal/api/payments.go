package api

import (
	"context"
	"net/url"

	"github.com/p-blackswan/taskhub/internal/models"
)

// PaymentService wraps the /payments endpoints. The gateway protocol itself
// belongs to the backend; the client only follows the returned URL.
type PaymentService struct {
	doer Doer
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(d Doer) *PaymentService {
	return &PaymentService{doer: d}
}

// List returns payments, optionally filtered by status.
func (s *PaymentService) List(ctx context.Context, p ListParams) (*models.Page[models.Payment], error) {
	var page models.Page[models.Payment]
	q := ListParams{Page: p.Page, Size: p.Size, Status: p.Status}.Values()
	if err := get(ctx, s.doer, "/payments", q, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Create starts a payment and returns the gateway redirect.
func (s *PaymentService) Create(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitiation, error) {
	var init models.PaymentInitiation
	if err := post(ctx, s.doer, "/payments/create", req, &init); err != nil {
		return nil, err
	}
	return &init, nil
}

// Callback forwards the gateway's return parameters and yields the settled payment.
func (s *PaymentService) Callback(ctx context.Context, params url.Values) (*models.Payment, error) {
	var payment models.Payment
	if err := get(ctx, s.doer, "/payments/callback", params, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
