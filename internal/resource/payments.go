package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	apierr "github.com/p-blackswan/taskhub/internal/errors"
	"github.com/p-blackswan/taskhub/internal/models"
	"github.com/p-blackswan/taskhub/internal/session"
)

// PaymentAPI is the payment backend the hook needs.
type PaymentAPI interface {
	List(ctx context.Context, p Filter) (*models.Page[models.Payment], error)
	Create(ctx context.Context, req models.PaymentRequest) (*models.PaymentInitiation, error)
	Callback(ctx context.Context, params url.Values) (*models.Payment, error)
}

// ErrPaymentFailed is returned by HandleCallback when the gateway reports a
// payment that did not settle.
var ErrPaymentFailed = errors.New("payment failed")

// Payments is the payment list hook plus the initiate/callback flow.
type Payments struct {
	*Query[models.Payment]
	svc PaymentAPI
}

// NewPayments builds the payment hook. A status of "all" is no filter.
func NewPayments(svc PaymentAPI, strategy session.Strategy, filter Filter, deps Deps) *Payments {
	ep := Endpoints[models.Payment]{All: svc.List}
	return &Payments{
		Query: NewQuery("payments", ep, strategy, PaymentsPageSize, filter, deps),
		svc:   svc,
	}
}

// Initiate starts a payment and returns the gateway URL the user must visit.
func (p *Payments) Initiate(ctx context.Context, projectID, amount int64, returnURL string) (string, error) {
	init, err := p.svc.Create(ctx, models.PaymentRequest{ProjectID: projectID, Amount: amount, ReturnURL: returnURL})
	if err == nil && init.PaymentURL == "" {
		err = fmt.Errorf("%w: no payment URL returned", apierr.ErrMalformedResponse)
	}
	if err != nil {
		if !apierr.IsSessionExpired(err) {
			p.notifier.Error(apierr.Message(err, "Failed to create payment"))
		}
		return "", fmt.Errorf("failed to create payment: %w", err)
	}
	p.logger.Info().Int64("project_id", projectID).Int64("amount", amount).Msg("payment initiated")
	return init.PaymentURL, nil
}

// HandleCallback forwards the gateway's return parameters, reports the
// outcome and refetches the list.
func (p *Payments) HandleCallback(ctx context.Context, params url.Values) (*models.Payment, error) {
	payment, err := p.svc.Callback(ctx, params)
	if err != nil {
		if !apierr.IsSessionExpired(err) {
			p.notifier.Error(apierr.Message(err, "Failed to process payment callback"))
		}
		return nil, fmt.Errorf("failed to process payment callback: %w", err)
	}

	if payment.Status.Succeeded() {
		p.notifier.Success("Payment successful!")
	} else {
		p.notifier.Error("Payment failed!")
		err = fmt.Errorf("%w: status %s", ErrPaymentFailed, payment.Status)
	}
	p.fetch(ctx)
	return payment, err
}
