package payment

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

// LocalProcessor stands in for the hosted processor during development. It
// never charges anything: sessions get a random id and redirect straight to
// the success URL. Webhooks are verified exactly like Stripe's, so callbacks
// can be simulated with SignatureHeader.
type LocalProcessor struct {
	webhookVerifier
}

func NewLocalProcessor(webhookSecret string) *LocalProcessor {
	return &LocalProcessor{webhookVerifier: webhookVerifier{secret: webhookSecret}}
}

func (p *LocalProcessor) CreateCheckoutSession(ctx context.Context, sp SessionParams) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id := "cs_local_" + uuid.NewString()

	redirect := sp.SuccessURL
	if u, err := url.Parse(sp.SuccessURL); err == nil {
		q := u.Query()
		q.Set("session_id", id)
		u.RawQuery = q.Encode()
		redirect = u.String()
	}
	return &Session{ID: id, URL: redirect}, nil
}
