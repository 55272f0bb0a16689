package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"curtainbe/internal/domain"
)

// submitComparisonRequest uses the field names the Curtain frontend sends.
type submitComparisonRequest struct {
	IDList    []string `json:"idList"`
	StudyList []string `json:"studyList"`
	MatchType string   `json:"matchType"`
	SessionID string   `json:"sessionId"`
}

// SubmitComparison handles POST /compare. The endpoint is open to anonymous
// callers; private sessions in the request are silently dropped unless the
// caller owns them.
func (h *Handler) SubmitComparison(w http.ResponseWriter, r *http.Request) {
	var body submitComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	matchType, err := domain.ParseMatchType(body.MatchType)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := h.compare.Submit(r.Context(), domain.CompareRequest{
		SessionIDs:  body.IDList,
		QueryTerms:  body.StudyList,
		MatchType:   matchType,
		ChannelName: body.SessionID,
	}, currentUserID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"job_id": job.ID})
}

// GetJob handles GET /jobs/{jobID}. While a job is queued or running the
// response is a status envelope; a finished job's result is returned bare,
// unwrapped. Clients depend on that shape.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.compare.GetJob(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, err)
		return
	}

	switch job.Status {
	case domain.CompareJobStatusFinished:
		writeJSON(w, http.StatusOK, job.Result)
	case domain.CompareJobStatusFailed:
		writeJSON(w, http.StatusOK, map[string]string{"status": "failed"})
	case domain.CompareJobStatusStarted:
		writeJSON(w, http.StatusOK, map[string]string{"status": "progressing"})
	case domain.CompareJobStatusQueued:
		writeJSON(w, http.StatusOK, map[string]string{"status": "queued"})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "unknown"})
	}
}
