package handler

import (
	"claimguard/internal/claims/models"
	"claimguard/internal/claims/service"
	dErrors "claimguard/pkg/domain-errors"
)

// ClaimListResponse is the body of GET /v1/claims.
type ClaimListResponse struct {
	Claims []models.ClaimSummary `json:"claims"`
	Count  int                   `json:"count"`
}

// BatchItem is one claim's outcome in a batch evaluation.
type BatchItem struct {
	ClaimID   string         `json:"claim_id"`
	State     models.State   `json:"state,omitempty"`
	Verdict   models.Verdict `json:"verdict,omitempty"`
	RiskScore *int           `json:"risk_score,omitempty"`
	Skipped   bool           `json:"skipped,omitempty"`
	Error     string         `json:"error,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
}

// BatchEvaluateResponse is the body of POST /v1/claims/evaluate-batch.
type BatchEvaluateResponse struct {
	Results   []BatchItem `json:"results"`
	Evaluated int         `json:"evaluated"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	Cancelled bool        `json:"cancelled,omitempty"`
}

func toBatchResponse(results []service.BatchResult, cancelled bool) BatchEvaluateResponse {
	resp := BatchEvaluateResponse{
		Results:   make([]BatchItem, len(results)),
		Cancelled: cancelled,
	}
	for i, r := range results {
		item := BatchItem{
			ClaimID:   r.ClaimID,
			State:     r.State,
			Verdict:   r.Verdict,
			RiskScore: r.RiskScore,
			Skipped:   r.Skipped,
		}
		switch {
		case r.Skipped:
			resp.Skipped++
		case r.Error != nil:
			resp.Failed++
			item.ErrorCode = string(dErrors.CodeOf(r.Error))
			if dErrors.CodeOf(r.Error) != dErrors.CodeInternal {
				item.Error = dErrors.MessageOf(r.Error)
			}
		default:
			resp.Evaluated++
		}
		resp.Results[i] = item
	}
	return resp
}
