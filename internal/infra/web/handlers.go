package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondDomainError maps sentinel errors onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		http.Error(w, "Conflict", http.StatusConflict)
	case errors.Is(err, domain.ErrNoActiveSubscription):
		http.Error(w, "Active subscription required", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotPostAuthor):
		http.Error(w, "Not the post author", http.StatusForbidden)
	case errors.Is(err, domain.ErrNotRefundable), errors.Is(err, domain.ErrRefundExceedsBalance):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		http.Error(w, "Payment provider unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlanID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	claims := claimsFrom(r.Context())

	p, cs, err := s.paymentUC.CreateCheckout(r.Context(), claims.UserID(), req.PlanID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"payment":      p,
		"session_id":   cs.SessionID,
		"checkout_url": cs.CheckoutURL,
	})
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	p, err := s.paymentUC.Status(r.Context(), claims.UserID(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	p, err := s.paymentUC.Cancel(r.Context(), claims.UserID(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleRetryCheckout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	p, cs, err := s.paymentUC.RetryCheckout(r.Context(), claims.UserID(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"payment":      p,
		"session_id":   cs.SessionID,
		"checkout_url": cs.CheckoutURL,
	})
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	payments, err := s.paymentUC.ListByUser(r.Context(), claims.UserID(), offset, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"payments": payments, "offset": offset, "limit": limit})
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount"` // nil: full remaining balance
	Reason string           `json:"reason"`
}

func (s *Server) handleCreateRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	claims := claimsFrom(r.Context())

	ref, err := s.paymentUC.CreateRefund(r.Context(), claims.UserID(), chi.URLParam(r, "id"), req.Amount, req.Reason)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, ref)
}

func (s *Server) handlePaymentAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.statsUC.PaymentAnalytics(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.subUC.ListPlans(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"plans": plans})
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	sub, err := s.subUC.GetByUser(r.Context(), claims.UserID())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"subscription":   sub,
		"is_active":      sub.IsActive(),
		"days_remaining": sub.DaysRemaining(),
	})
}

func (s *Server) handleSubscriptionHistory(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	rows, err := s.subUC.History(r.Context(), claims.UserID())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": rows})
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.subUC.CancelByUser(r.Context(), claims.UserID()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handlePinPost(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	pin, err := s.pinUC.Pin(r.Context(), claims.UserID(), chi.URLParam(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pin)
}

func (s *Server) handleUnpinPost(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if err := s.pinUC.Unpin(r.Context(), claims.UserID()); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "unpinned"})
}
