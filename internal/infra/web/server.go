package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"news-site-backend/internal/infra/logging"
	"news-site-backend/internal/usecase"
)

type Server struct {
	paymentUC usecase.PaymentUseCase
	subUC     usecase.SubscriptionUseCase
	pinUC     usecase.PinUseCase
	statsUC   usecase.StatsUseCase
	webhookUC usecase.WebhookUseCase
	verifier  WebhookVerifier
	auth      *AuthManager
	log       *zerolog.Logger
}

func NewServer(
	paymentUC usecase.PaymentUseCase,
	subUC usecase.SubscriptionUseCase,
	pinUC usecase.PinUseCase,
	statsUC usecase.StatsUseCase,
	webhookUC usecase.WebhookUseCase,
	verifier WebhookVerifier,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	lg := logger.With().Str("component", "web").Logger()
	return &Server{
		paymentUC: paymentUC,
		subUC:     subUC,
		pinUC:     pinUC,
		statsUC:   statsUC,
		webhookUC: webhookUC,
		verifier:  verifier,
		auth:      auth,
		log:       &lg,
	}
}

// Router builds the full route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/webhook/stripe", s.handleStripeWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", s.handleListPlans)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", s.handleListPayments)
				r.Post("/checkout", s.handleCreateCheckout)
				r.Get("/{id}/status", s.handlePaymentStatus)
				r.Post("/{id}/cancel", s.handleCancelPayment)
				r.Post("/{id}/retry", s.handleRetryCheckout)
			})

			r.Get("/subscription", s.handleGetSubscription)
			r.Get("/subscription/history", s.handleSubscriptionHistory)
			r.Delete("/subscription", s.handleCancelSubscription)

			r.Post("/posts/{id}/pin", s.handlePinPost)
			r.Delete("/posts/pin", s.handleUnpinPost)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/payments/{id}/refund", s.handleCreateRefund)
			r.Get("/payments/analytics", s.handlePaymentAnalytics)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		r = r.WithContext(logging.WithTraceID(r.Context(), middleware.GetReqID(r.Context())))
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}
