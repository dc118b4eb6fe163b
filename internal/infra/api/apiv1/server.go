package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"edu-content-subscription/internal/domain"
	"edu-content-subscription/internal/domain/model"
	"edu-content-subscription/internal/infra/logging"
	"edu-content-subscription/internal/usecase"
)

// Activation is the slice of ActivationUseCase this server consumes.
type Activation interface {
	ValidateCode(ctx context.Context, raw string) (*usecase.CodeValidation, error)
	Redeem(ctx context.Context, req usecase.RedeemRequest) (*usecase.RedeemResult, error)
	RejectionMessage(err error) string
	SuccessMessage(res *usecase.RedeemResult) string
	History(ctx context.Context, userID string, limit int) ([]*model.ActivationLogEntry, error)
}

// Entitlement is the slice of EntitlementUseCase this server consumes.
type Entitlement interface {
	CanAccess(ctx context.Context, userID, subjectID string) (bool, error)
	CurrentSubscription(ctx context.Context, userID string) (*model.Subscription, error)
}

// Allower throttles the code-validation path. Nil disables throttling.
type Allower interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	activation  Activation
	entitlement Entitlement

	limiter     Allower
	limit       int
	limitWindow time.Duration
	limitKey    func(caller string) string

	log *zerolog.Logger
}

func NewServer(activation Activation, entitlement Entitlement, logger *zerolog.Logger) *Server {
	srvLog := logger.With().Str("component", "apiv1").Logger()
	return &Server{
		activation:  activation,
		entitlement: entitlement,
		log:         &srvLog,
	}
}

// WithRateLimit enables fixed-window throttling of POST /codes/validate.
func (s *Server) WithRateLimit(limiter Allower, limit int, window time.Duration, keyFn func(caller string) string) *Server {
	s.limiter = limiter
	s.limit = limit
	s.limitWindow = window
	s.limitKey = keyFn
	return s
}

// RegisterAPIV1 mounts all v1 routes on the router at absolute paths.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Post("/api/v1/codes/validate", s.handleValidate)
	r.Post("/api/v1/redemptions", s.handleRedeem)
	r.Get("/api/v1/users/{userID}/entitlements", s.handleEntitlements)
	r.Get("/api/v1/users/{userID}/activations", s.handleActivations)
}

// ---------------- request/response shapes ----------------

type validateRequest struct {
	Code   string `json:"code"`
	UserID string `json:"user_id,omitempty"`
}

type validateResponse struct {
	Valid                 bool   `json:"valid"`
	RequiresSubjectChoice bool   `json:"requires_subject_choice"`
	Message               string `json:"message,omitempty"`
	CodeID                string `json:"code_id,omitempty"`
	PlanID                string `json:"plan_id,omitempty"`
}

type redeemRequest struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	Code        string `json:"code,omitempty"`
	CodeID      string `json:"code_id,omitempty"`
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name,omitempty"`
}

type redeemResponse struct {
	PlanName string    `json:"plan_name"`
	EndDate  time.Time `json:"end_date"`
	Message  string    `json:"message"`
}

type subscriptionView struct {
	PlanID      string    `json:"plan_id"`
	PlanName    string    `json:"plan_name"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Status      string    `json:"status"`
	SubjectID   *string   `json:"subject_id,omitempty"`
	SubjectName *string   `json:"subject_name,omitempty"`
}

type entitlementResponse struct {
	Allowed      bool              `json:"allowed"`
	Subscription *subscriptionView `json:"subscription,omitempty"`
}

type activationView struct {
	CodeID      string    `json:"code_id"`
	SubjectID   *string   `json:"subject_id,omitempty"`
	PlanName    string    `json:"plan_name"`
	ActivatedAt time.Time `json:"activated_at"`
}

// ---------------- handlers ----------------

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if s.limiter != nil {
		caller := req.UserID
		if caller == "" {
			caller = r.RemoteAddr
		}
		ok, err := s.limiter.Allow(r.Context(), s.limitKey(caller), s.limit, s.limitWindow)
		if err != nil {
			// Throttle store down: let the request through rather than lock
			// every caller out.
			logging.With(r.Context(), s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			http.Error(w, "too many attempts", http.StatusTooManyRequests)
			return
		}
	}

	v, err := s.activation.ValidateCode(r.Context(), req.Code)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("validate failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := validateResponse{
		Valid:                 v.Valid,
		RequiresSubjectChoice: v.RequiresSubjectChoice,
		Message:               v.Message,
	}
	if v.Valid && v.Code != nil {
		resp.CodeID = v.Code.ID
		resp.PlanID = v.Code.PlanID()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	ctx := logging.WithUserID(r.Context(), req.UserID)

	codeID := req.CodeID
	if codeID == "" {
		// Callers may send the raw code instead of the id from a prior
		// validation. Resolve it; rejections surface with their message.
		v, err := s.activation.ValidateCode(ctx, req.Code)
		if err != nil {
			logging.With(ctx, s.log).Error().Err(err).Msg("redeem lookup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if !v.Valid {
			writeError(w, statusFor(v.Reason), v.Message)
			return
		}
		codeID = v.Code.ID
	}
	ctx = logging.WithCodeID(ctx, codeID)

	res, err := s.activation.Redeem(ctx, usecase.RedeemRequest{
		UserID:            req.UserID,
		Email:             req.Email,
		CodeID:            codeID,
		ChosenSubjectID:   req.SubjectID,
		ChosenSubjectName: req.SubjectName,
	})
	if err != nil {
		writeError(w, statusFor(err), s.activation.RejectionMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, redeemResponse{
		PlanName: res.PlanName,
		EndDate:  res.EndDate,
		Message:  s.activation.SuccessMessage(res),
	})
}

func (s *Server) handleEntitlements(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	subjectID := r.URL.Query().Get("subject_id")

	allowed, err := s.entitlement.CanAccess(r.Context(), userID, subjectID)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("entitlement check failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := entitlementResponse{Allowed: allowed}
	if sub, err := s.entitlement.CurrentSubscription(r.Context(), userID); err == nil && sub != nil {
		resp.Subscription = &subscriptionView{
			PlanID:      sub.PlanID,
			PlanName:    sub.PlanName,
			StartDate:   sub.StartDate,
			EndDate:     sub.EndDate,
			Status:      string(sub.Status),
			SubjectID:   sub.SubjectID,
			SubjectName: sub.SubjectName,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := s.activation.History(r.Context(), userID, limit)
	if err != nil {
		logging.With(r.Context(), s.log).Error().Err(err).Msg("history load failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	items := make([]activationView, 0, len(entries))
	for _, e := range entries {
		items = append(items, activationView{
			CodeID:      e.CodeID,
			SubjectID:   e.SubjectID,
			PlanName:    e.PlanName,
			ActivatedAt: e.ActivatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// ---------------- helpers ----------------

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCodeNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCodeAlreadyUsed), errors.Is(err, domain.ErrSubscriptionStillActive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyCode),
		errors.Is(err, domain.ErrCodeInactive),
		errors.Is(err, domain.ErrCodeNotYetValid),
		errors.Is(err, domain.ErrCodeExpired),
		errors.Is(err, domain.ErrSubjectChoiceRequired),
		errors.Is(err, domain.ErrMissingUserIdentity):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOperationFailed):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
