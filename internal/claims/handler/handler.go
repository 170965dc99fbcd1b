// Package handler exposes the claim lifecycle over HTTP.
package handler

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"claimguard/internal/claims/models"
	"claimguard/internal/claims/service"
	dErrors "claimguard/pkg/domain-errors"
	"claimguard/pkg/platform/httputil"
	pstrings "claimguard/pkg/platform/strings"
	"claimguard/pkg/requestcontext"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Service defines the lifecycle operations the handler calls.
type Service interface {
	Submit(ctx context.Context, req models.SubmitRequest, actor models.Actor) (*models.Claim, error)
	Get(ctx context.Context, id string) (*models.Claim, error)
	Evaluate(ctx context.Context, id string, actor models.Actor) (*models.Claim, error)
	Transition(ctx context.Context, id string, req models.TransitionRequest) (*models.Claim, error)
	Correct(ctx context.Context, id string, req models.CorrectionRequest) (*models.Claim, error)
	List(ctx context.Context, filter models.ClaimFilter) iter.Seq2[models.ClaimSummary, error]
	Stats(ctx context.Context, filter models.ClaimFilter) (models.ClaimStats, error)
	BatchEvaluate(ctx context.Context, ids []string, workers int, actor models.Actor) ([]service.BatchResult, error)
}

// Handler wires claim endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a claim handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the claim endpoints. Mutating routes run behind
// requireActor; reads are open to any caller that reaches the router.
func (h *Handler) Register(r chi.Router, requireActor func(http.Handler) http.Handler) {
	r.Route("/v1/claims", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/stats", h.HandleStats)
		r.Get("/{id}", h.HandleGet)

		r.Group(func(r chi.Router) {
			if requireActor != nil {
				r.Use(requireActor)
			}
			r.Post("/", h.HandleSubmit)
			r.Post("/evaluate-batch", h.HandleBatchEvaluate)
			r.Post("/{id}/evaluate", h.HandleEvaluate)
			r.Post("/{id}/transitions", h.HandleTransition)
			r.Post("/{id}/corrections", h.HandleCorrect)
		})
	})
}

func actorFrom(ctx context.Context) (models.Actor, bool) {
	actor := models.Actor{
		ID:   requestcontext.ActorID(ctx),
		Role: requestcontext.ActorRole(ctx),
	}
	return actor, !actor.IsZero()
}

func (h *Handler) requireActor(w http.ResponseWriter, ctx context.Context) (models.Actor, bool) {
	actor, ok := actorFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
	}
	return actor, ok
}

func claimID(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" || len(id) > maxClaimIDLength {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid claim id")
	}
	return id, nil
}

// HandleSubmit handles POST /v1/claims.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.service.Submit(ctx, req.ToModel(), actor)
	if err != nil {
		h.logger.WarnContext(ctx, "claim submission failed",
			"request_id", requestID,
			"actor_id", actor.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim submitted",
		"request_id", requestID,
		"claim_id", claim.ID,
		"actor_id", actor.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, claim)
}

// HandleGet handles GET /v1/claims/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := claimID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	claim, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleEvaluate handles POST /v1/claims/{id}/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	id, err := claimID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	claim, err := h.service.Evaluate(ctx, id, actor)
	if err != nil {
		h.logger.WarnContext(ctx, "claim evaluation failed",
			"request_id", requestID,
			"claim_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	report := claim.LatestReport()
	h.logger.InfoContext(ctx, "claim evaluated",
		"request_id", requestID,
		"claim_id", id,
		"verdict", report.Verdict,
		"risk_score", report.RiskScore,
		"state", claim.State,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleTransition handles POST /v1/claims/{id}/transitions.
func (h *Handler) HandleTransition(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	id, err := claimID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransitionClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.service.Transition(ctx, id, req.ToModel(actor))
	if err != nil {
		h.logger.WarnContext(ctx, "claim transition refused",
			"request_id", requestID,
			"claim_id", id,
			"action", req.Action,
			"actor_id", actor.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim transitioned",
		"request_id", requestID,
		"claim_id", id,
		"state", claim.State,
		"actor_id", actor.ID,
		"override", req.Override != nil,
	)
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleCorrect handles POST /v1/claims/{id}/corrections.
func (h *Handler) HandleCorrect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	id, err := claimID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CorrectClaimRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	claim, err := h.service.Correct(ctx, id, req.ToModel(actor))
	if err != nil {
		h.logger.WarnContext(ctx, "claim correction refused",
			"request_id", requestID,
			"claim_id", id,
			"actor_id", actor.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim corrected",
		"request_id", requestID,
		"claim_id", id,
		"state", claim.State,
		"actor_id", actor.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, claim)
}

// HandleList handles GET /v1/claims.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r, true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ClaimListResponse{Claims: []models.ClaimSummary{}}
	for summary, err := range h.service.List(ctx, filter) {
		if err != nil {
			h.logger.ErrorContext(ctx, "claim listing failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		resp.Claims = append(resp.Claims, summary)
	}
	resp.Count = len(resp.Claims)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleStats handles GET /v1/claims/stats. It accepts the list filters
// except limit.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseFilter(r, false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := h.service.Stats(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleBatchEvaluate handles POST /v1/claims/evaluate-batch. A batch cut
// short by the client going away still reports what finished.
func (h *Handler) HandleBatchEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := h.requireActor(w, ctx)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[BatchEvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	results, err := h.service.BatchEvaluate(ctx, req.ClaimIDs, req.Workers, actor)
	resp := toBatchResponse(results, err != nil)
	h.logger.InfoContext(ctx, "batch evaluation requested",
		"request_id", requestID,
		"actor_id", actor.ID,
		"claims", len(req.ClaimIDs),
		"failed", resp.Failed,
		"skipped", resp.Skipped,
	)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// parseFilter reads state, severity, from, to, q and limit. state and
// severity accept comma separated lists.
func parseFilter(r *http.Request, withLimit bool) (models.ClaimFilter, error) {
	q := r.URL.Query()
	var filter models.ClaimFilter

	for _, raw := range pstrings.SplitList(q["state"]...) {
		s := models.State(strings.ToLower(raw))
		if !s.IsValid() {
			return filter, dErrors.Newf(dErrors.CodeValidation, "unknown state %q", raw)
		}
		filter.States = append(filter.States, s)
	}
	for _, raw := range pstrings.SplitList(q["severity"]...) {
		sev, err := models.ParseSeverity(raw)
		if err != nil {
			return filter, err
		}
		filter.Severities = append(filter.Severities, sev)
	}
	if v := q.Get("from"); v != "" {
		d, err := parseDate("from", v)
		if err != nil {
			return filter, err
		}
		filter.IncidentFrom = d
	}
	if v := q.Get("to"); v != "" {
		d, err := parseDate("to", v)
		if err != nil {
			return filter, err
		}
		filter.IncidentTo = d
	}
	if !filter.IncidentFrom.IsZero() && !filter.IncidentTo.IsZero() && filter.IncidentTo.Before(filter.IncidentFrom) {
		return filter, dErrors.New(dErrors.CodeValidation, "to must not be before from")
	}
	filter.Search = q.Get("q")

	if withLimit {
		filter.Limit = DefaultListLimit
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return filter, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer")
			}
			filter.Limit = min(n, MaxListLimit)
		}
	}
	filter.Normalize()
	return filter, nil
}
