package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
	"news-site-backend/internal/infra/logging"
	"news-site-backend/internal/infra/metrics"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

type WebhookUseCase interface {
	// HandleEvent records and dispatches one provider event. A redelivered
	// event id is a no-op. Handler failures are recorded on the event row,
	// not returned; the returned error covers storage problems only.
	HandleEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error
	// RetryFailed re-dispatches failed events created inside the lookback
	// window, once each, plus pending events stuck past a grace age.
	// Returns how many recovered.
	RetryFailed(ctx context.Context, lookback time.Duration, limit int) (int, error)
}

// paymentProcessor is the slice of the payment use case the dispatcher needs.
type paymentProcessor interface {
	ProcessSuccessfulPayment(ctx context.Context, paymentID, intentID string) error
	ProcessFailedPayment(ctx context.Context, paymentID, reason string) error
	RecordDispute(ctx context.Context, intentID, disputeID, reason string) error
}

type webhookUC struct {
	events   repository.WebhookEventRepository
	payments repository.PaymentRepository
	proc     paymentProcessor
	log      *zerolog.Logger
}

func NewWebhookUseCase(events repository.WebhookEventRepository, payments repository.PaymentRepository, proc paymentProcessor, logger *zerolog.Logger) *webhookUC {
	lg := logger.With().Str("component", "webhook_uc").Logger()
	return &webhookUC{events: events, payments: payments, proc: proc, log: &lg}
}

// eventObject is the minimal shape shared by the payload objects we dispatch
// on. Field presence depends on the event type.
type eventObject struct {
	ID               string            `json:"id"`
	PaymentIntent    string            `json:"payment_intent"`
	PaymentStatus    string            `json:"payment_status"`
	Metadata         map[string]string `json:"metadata"`
	Reason           string            `json:"reason"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func (u *webhookUC) HandleEvent(ctx context.Context, provider, eventID, eventType string, payload []byte) error {
	ctx = logging.WithEventID(ctx, eventID)
	e := &model.WebhookEvent{
		ID:        uuid.NewString(),
		Provider:  provider,
		EventID:   eventID,
		EventType: eventType,
		Status:    model.WebhookEventStatusPending,
		Payload:   payload,
		CreatedAt: time.Now(),
	}

	if err := u.events.Insert(ctx, repository.NoTX, e); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			logging.With(ctx, u.log).Debug().Msg("event redelivered, skipping")
			metrics.IncWebhookEvent(eventType, "duplicate")
			return nil
		}
		return err
	}

	status, errMsg := u.dispatch(ctx, e)
	metrics.IncWebhookEvent(eventType, string(status))
	return u.events.MarkOutcome(ctx, repository.NoTX, e.ID, status, errMsg, time.Now())
}

// dispatch runs the handler for the event's kind and reports the outcome to
// store on the row.
func (u *webhookUC) dispatch(ctx context.Context, e *model.WebhookEvent) (model.WebhookEventStatus, string) {
	defer logging.TraceDuration(u.log, "WebhookUC.dispatch")()

	var obj eventObject
	if err := json.Unmarshal(e.Payload, &obj); err != nil {
		return model.WebhookEventStatusFailed, "malformed payload: " + err.Error()
	}

	switch e.Kind() {
	case model.EventKindCheckoutSessionCompleted:
		paymentID, err := u.correlate(ctx, &obj)
		if err != nil {
			return model.WebhookEventStatusFailed, err.Error()
		}
		if obj.PaymentStatus != "" && obj.PaymentStatus != "paid" {
			// Session completed without payment (e.g. async methods); the
			// intent events carry the final word.
			return model.WebhookEventStatusIgnored, ""
		}
		if err := u.proc.ProcessSuccessfulPayment(ctx, paymentID, obj.PaymentIntent); err != nil {
			return model.WebhookEventStatusFailed, err.Error()
		}
		return model.WebhookEventStatusProcessed, ""

	case model.EventKindPaymentIntentSucceeded:
		paymentID, err := u.correlate(ctx, &obj)
		if err != nil {
			return model.WebhookEventStatusFailed, err.Error()
		}
		if err := u.proc.ProcessSuccessfulPayment(ctx, paymentID, obj.ID); err != nil {
			return model.WebhookEventStatusFailed, err.Error()
		}
		return model.WebhookEventStatusProcessed, ""

	case model.EventKindPaymentIntentFailed:
		paymentID, err := u.correlate(ctx, &obj)
		if err != nil {
			return model.WebhookEventStatusFailed, err.Error()
		}
		reason := "payment failed"
		if obj.LastPaymentError != nil && obj.LastPaymentError.Message != "" {
			reason = obj.LastPaymentError.Message
		}
		if err := u.proc.ProcessFailedPayment(ctx, paymentID, reason); err != nil {
			return model.WebhookEventStatusFailed, err.Error()
		}
		return model.WebhookEventStatusProcessed, ""

	case model.EventKindChargeDisputeCreated:
		if obj.PaymentIntent == "" {
			return model.WebhookEventStatusFailed, "dispute without payment intent"
		}
		if err := u.proc.RecordDispute(ctx, obj.PaymentIntent, obj.ID, obj.Reason); err != nil {
			return model.WebhookEventStatusFailed, err.Error()
		}
		return model.WebhookEventStatusProcessed, ""

	default:
		return model.WebhookEventStatusIgnored, ""
	}
}

// correlate resolves the local payment id: metadata first, provider session
// id as fallback.
func (u *webhookUC) correlate(ctx context.Context, obj *eventObject) (string, error) {
	if id := obj.Metadata["payment_id"]; id != "" {
		return id, nil
	}
	if obj.ID != "" {
		if p, err := u.payments.FindBySessionID(ctx, repository.NoTX, obj.ID); err == nil {
			return p.ID, nil
		}
	}
	return "", errors.New("no payment correlation in event")
}

// stuckPendingGrace is how long a pending event may sit before the sweep
// treats it as orphaned by a crash and re-dispatches it.
const stuckPendingGrace = 5 * time.Minute

func (u *webhookUC) RetryFailed(ctx context.Context, lookback time.Duration, limit int) (int, error) {
	now := time.Now()
	retryable, err := u.events.ListRetryable(ctx, repository.NoTX, now.Add(-lookback), now.Add(-stuckPendingGrace), limit)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, e := range retryable {
		status, errMsg := u.dispatch(ctx, e)
		if err := u.events.MarkOutcome(ctx, repository.NoTX, e.ID, status, errMsg, time.Now()); err != nil {
			u.log.Error().Err(err).Str("event_id", e.EventID).Msg("mark retried event")
			continue
		}
		metrics.IncWebhookRetry(string(status))
		if status == model.WebhookEventStatusProcessed {
			recovered++
		}
	}
	return recovered, nil
}
