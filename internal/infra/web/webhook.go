package web

import (
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v83"

	"news-site-backend/internal/infra/metrics"
)

// WebhookVerifier checks the provider signature over the raw payload and
// returns the parsed event.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

const maxWebhookBody = 1 << 20

// handleStripeWebhook receives provider callbacks. Everything after a
// verified signature answers 200 so the provider stops redelivering, with
// failures recorded on the event row.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	// Read one byte past the cap so an oversized body is rejected outright
	// instead of truncated into a signature mismatch.
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
	if err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if len(payload) > maxWebhookBody {
		http.Error(w, "Payload too large", http.StatusRequestEntityTooLarge)
		return
	}

	event, err := s.verifier.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		metrics.IncWebhookSignatureFailure()
		s.log.Warn().Err(err).Msg("webhook signature rejected")
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	if err := s.webhookUC.HandleEvent(r.Context(), "stripe", event.ID, string(event.Type), event.Data.Raw); err != nil {
		// Storage failure: let the provider redeliver.
		s.log.Error().Err(err).Str("event_id", event.ID).Msg("record webhook event")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
