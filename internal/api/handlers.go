package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"clearance-engine/internal/domain"
)

// ClearanceService is the slice of the command service the HTTP layer
// consumes.
type ClearanceService interface {
	Create(ctx context.Context, req domain.NewRequest) (domain.ClearanceRecord, error)
	Get(ctx context.Context, id string) (domain.ClearanceRecord, error)
	List(ctx context.Context, filter domain.Filter, sortKey domain.SortKey) ([]domain.ClearanceRecord, error)
	AuditLog(ctx context.Context, id string) ([]domain.AuditEntry, error)
	SubmitStageDecision(ctx context.Context, id string, stageID domain.StageID, decision domain.Decision, actor, comments string) (domain.ClearanceRecord, error)
	UpdateBackgroundCheck(ctx context.Context, id, field string, outcome domain.CheckOutcome) (domain.ClearanceRecord, error)
	UpdateDocumentStatus(ctx context.Context, id, docType string, status domain.DocumentStatus) (domain.ClearanceRecord, error)
	AddRiskFactor(ctx context.Context, id, category string, level domain.RiskLevel, description string) (domain.ClearanceRecord, error)
	ResolveRiskFactor(ctx context.Context, id, factorID string) (domain.ClearanceRecord, error)
	SetPriority(ctx context.Context, id string, priority domain.Priority) (domain.ClearanceRecord, error)
}

type storePinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc    ClearanceService
	pinger storePinger
}

func NewHandler(svc ClearanceService, pinger storePinger) *Handler {
	return &Handler{svc: svc, pinger: pinger}
}

type createRequest struct {
	CandidateID       string   `json:"candidate_id"`
	CandidateName     string   `json:"candidate_name"`
	CandidateEmail    string   `json:"candidate_email"`
	JobTitle          string   `json:"job_title"`
	ClientName        string   `json:"client_name"`
	ClearanceLevel    string   `json:"clearance_level"`
	Priority          string   `json:"priority"`
	ReviewFrequency   string   `json:"review_frequency,omitempty"`
	ExpectedDays      int      `json:"expected_days,omitempty"`
	ValidForDays      int      `json:"valid_for_days,omitempty"`
	BackgroundChecks  []string `json:"background_checks,omitempty"`
	RequiredDocuments []string `json:"required_documents,omitempty"`
}

type decisionRequest struct {
	StageID  string `json:"stage_id"`
	Decision string `json:"decision"`
	Actor    string `json:"actor"`
	Comments string `json:"comments,omitempty"`
}

type backgroundCheckRequest struct {
	Field   string `json:"field"`
	Outcome string `json:"outcome"`
}

type documentRequest struct {
	Status string `json:"status"`
}

type riskFactorRequest struct {
	Category    string `json:"category"`
	Level       string `json:"level"`
	Description string `json:"description,omitempty"`
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

func (h *Handler) CreateClearance(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json", "bad_request"))
		return
	}
	rec, err := h.svc.Create(r.Context(), domain.NewRequest{
		CandidateID:       req.CandidateID,
		CandidateName:     req.CandidateName,
		CandidateEmail:    req.CandidateEmail,
		JobTitle:          req.JobTitle,
		ClientName:        req.ClientName,
		Level:             domain.ClearanceLevel(req.ClearanceLevel),
		Priority:          domain.Priority(req.Priority),
		ReviewFrequency:   domain.ReviewFrequency(req.ReviewFrequency),
		ExpectedDays:      req.ExpectedDays,
		ValidForDays:      req.ValidForDays,
		BackgroundChecks:  req.BackgroundChecks,
		RequiredDocuments: req.RequiredDocuments,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) GetClearance(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) ListClearances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.Filter
	if v := q.Get("status"); v != "" {
		status := domain.RecordStatus(v)
		if !status.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown status filter", "bad_request"))
			return
		}
		filter.Status = &status
	}
	if v := q.Get("level"); v != "" {
		level := domain.ClearanceLevel(v)
		if !level.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown level filter", "bad_request"))
			return
		}
		filter.Level = &level
	}
	if v := q.Get("priority"); v != "" {
		priority := domain.Priority(v)
		if !priority.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown priority filter", "bad_request"))
			return
		}
		filter.Priority = &priority
	}
	filter.FreeText = q.Get("q")

	records, err := h.svc.List(r.Context(), filter, domain.SortKey(q.Get("sort")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": records})
}

func (h *Handler) GetAuditLog(w http.ResponseWriter, r *http.Request, id string) {
	entries, err := h.svc.AuditLog(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": entries})
}

func (h *Handler) SubmitDecision(w http.ResponseWriter, r *http.Request, id string) {
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json", "bad_request"))
		return
	}
	rec, err := h.svc.SubmitStageDecision(r.Context(), id,
		domain.StageID(req.StageID), domain.Decision(req.Decision), req.Actor, req.Comments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) UpdateBackgroundCheck(w http.ResponseWriter, r *http.Request, id string) {
	var req backgroundCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json", "bad_request"))
		return
	}
	rec, err := h.svc.UpdateBackgroundCheck(r.Context(), id, req.Field, domain.CheckOutcome(req.Outcome))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request, id, docType string) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json", "bad_request"))
		return
	}
	rec, err := h.svc.UpdateDocumentStatus(r.Context(), id, docType, domain.DocumentStatus(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) AddRiskFactor(w http.ResponseWriter, r *http.Request, id string) {
	var req riskFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json", "bad_request"))
		return
	}
	rec, err := h.svc.AddRiskFactor(r.Context(), id, req.Category, domain.RiskLevel(req.Level), req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) ResolveRiskFactor(w http.ResponseWriter, r *http.Request, id, factorID string) {
	rec, err := h.svc.ResolveRiskFactor(r.Context(), id, factorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) SetPriority(w http.ResponseWriter, r *http.Request, id string) {
	var req priorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json", "bad_request"))
		return
	}
	rec, err := h.svc.SetPriority(r.Context(), id, domain.Priority(req.Priority))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.pinger.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeError maps the domain error taxonomy onto HTTP statuses. Workflow
// rule violations and write races are both conflicts; the code field tells
// them apart so callers know a race is worth retrying.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidMutation):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error(), "bad_request"))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error(), "not_found"))
	case errors.Is(err, domain.ErrStageNotActive):
		writeJSON(w, http.StatusConflict, errorBody(err.Error(), "stage_not_active"))
	case errors.Is(err, domain.ErrPrerequisiteNotMet):
		writeJSON(w, http.StatusConflict, errorBody(err.Error(), "prerequisite_not_met"))
	case errors.Is(err, domain.ErrRiskGate):
		writeJSON(w, http.StatusConflict, errorBody(err.Error(), "risk_gate"))
	case errors.Is(err, domain.ErrConcurrentModification):
		writeJSON(w, http.StatusConflict, errorBody(err.Error(), "concurrent_modification"))
	case errors.Is(err, domain.ErrDataIntegrity):
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error(), "data_integrity"))
	default:
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error", "internal"))
	}
}

func errorBody(message, code string) map[string]any {
	return map[string]any{"error": message, "code": code}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
