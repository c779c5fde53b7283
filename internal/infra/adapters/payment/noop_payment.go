package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests and
// local development without Stripe credentials.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	sessions map[string]*adapter.SessionInfo
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		sessions: make(map[string]*adapter.SessionInfo),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s-%d", prefix, g.seq)
}

func (g *NoopPaymentGateway) CreateCustomer(ctx context.Context, user *model.User) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next("cus_noop"), nil
}

func (g *NoopPaymentGateway) CreateCheckoutSession(ctx context.Context, p *model.Payment, planName, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next("cs_noop")
	g.sessions[id] = &adapter.SessionInfo{
		Status:   "unpaid",
		IntentID: g.next("pi_noop"),
		Metadata: map[string]string{"payment_id": p.ID, "user_id": p.UserID},
	}
	return &adapter.CheckoutSession{
		SessionID:   id,
		CheckoutURL: "https://example.test/pay/" + id,
	}, nil
}

// MarkPaid flips a stored session to paid so tests can drive the poll path.
func (g *NoopPaymentGateway) MarkPaid(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.sessions[sessionID]; ok {
		s.Status = "paid"
	}
}

func (g *NoopPaymentGateway) Refund(ctx context.Context, p *model.Payment, amount *decimal.Decimal, reason string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next("re_noop"), true, nil
}

func (g *NoopPaymentGateway) RetrieveSession(ctx context.Context, sessionID string) (*adapter.SessionInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}
