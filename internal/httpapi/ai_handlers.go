package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"medvault.org/internal/ai"
	"medvault.org/internal/obs"
)

type analyzeReportRequest struct {
	ReportID string `json:"reportId"`
}

func (a *API) handleAnalyzeReport(w http.ResponseWriter, r *http.Request) {
	var req analyzeReportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.ReportID) == "" {
		writeError(w, r, http.StatusBadRequest, "reportId is required")
		return
	}

	result, err := a.ai.AnalyzeReport(r.Context(), req.ReportID)
	if err != nil {
		a.handleAIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type chatRequest struct {
	PatientID string `json:"patientId"`
	Question  string `json:"question"`
}

func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, r, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := a.ai.Chat(r.Context(), req.PatientID, req.Question)
	if err != nil {
		a.handleAIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type symptomsRequest struct {
	Symptoms     []string       `json:"symptoms"`
	Demographics map[string]any `json:"demographics"`
	Vitals       map[string]any `json:"vitals"`
}

func (a *API) handlePredictSymptoms(w http.ResponseWriter, r *http.Request) {
	var req symptomsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Symptoms) == 0 {
		writeError(w, r, http.StatusBadRequest, "symptoms are required")
		return
	}

	result, err := a.ai.PredictSymptoms(r.Context(), req.Symptoms, req.Demographics, req.Vitals)
	if err != nil {
		a.handleAIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleAIError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ai.ErrUnavailable) {
		writeError(w, r, http.StatusBadGateway, "analysis service unavailable")
		return
	}
	logger := obs.Logger()
	logger.Error().Err(err).Msg("ai handler error")
	writeError(w, r, http.StatusInternalServerError, "internal error")
}
