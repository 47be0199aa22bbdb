package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-grounder/internal/server/middleware"
	"github.com/jonathan/resume-grounder/internal/types"
)

// ValidateRequest carries a raw model response to check offline
type ValidateRequest struct {
	Job      types.GenerationRequest `json:"job"`
	Response string                  `json:"response" validate:"required"`
}

// BudgetResponse reports today's token usage
type BudgetResponse struct {
	TokensUsed       int64 `json:"tokens_used"`
	DailyLimit       int64 `json:"daily_limit"`
	WarningThreshold int64 `json:"warning_threshold"`
	Remaining        int64 `json:"remaining"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTailor(w http.ResponseWriter, r *http.Request) {
	var job types.GenerationRequest
	if err := s.decode(w, r, &job); err != nil {
		s.errorResponse(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.errorResponse(w, fmt.Errorf("waiting for engine: %w", err))
		return
	}
	defer s.sem.Release(1)

	s.logger.Info("tailor request", "client", middleware.Subject(r.Context()), "company", job.Company, "title", job.JobTitle)
	result, err := s.engine.TailorJob(ctx, job)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := s.decode(w, r, &req); err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.engine.Evaluate(req.Job, req.Response))
}

func (s *Server) handleBudget(w http.ResponseWriter, _ *http.Request) {
	tracker := s.engine.Budget()
	limits := tracker.Limits()
	s.jsonResponse(w, http.StatusOK, BudgetResponse{
		TokensUsed:       tracker.Total(),
		DailyLimit:       limits.DailyLimit,
		WarningThreshold: limits.WarningThreshold,
		Remaining:        tracker.Remaining(),
	})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return
	}
	record, err := s.store.GetDraft(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, record)
}

// decode reads a JSON body into v and validates it
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ErrValidation{Field: verrs[0].Namespace(), Message: "failed " + verrs[0].Tag() + " check"}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}
