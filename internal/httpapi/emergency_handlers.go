package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medvault.org/internal/emergency"
	"medvault.org/internal/obs"
)

type emergencyRequestBody struct {
	RequesterName string     `json:"requesterName"`
	Reason        string     `json:"reason"`
	Notes         string     `json:"notes"`
	ExpiresAt     *time.Time `json:"expiresAt"`
}

type emergencyResponse struct {
	ID                 string    `json:"id"`
	PatientID          string    `json:"patientId"`
	RequesterName      string    `json:"requesterName"`
	Reason             string    `json:"reason"`
	Notes              string    `json:"notes,omitempty"`
	ApprovedByDoctorID *string   `json:"approvedByDoctorId,omitempty"`
	ExpiresAt          time.Time `json:"expiresAt"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toEmergencyResponse(req *emergency.AccessRequest) emergencyResponse {
	return emergencyResponse{
		ID:                 req.ID,
		PatientID:          req.PatientID,
		RequesterName:      req.RequesterName,
		Reason:             req.Reason,
		Notes:              req.Notes,
		ApprovedByDoctorID: req.ApprovedByDoctorID,
		ExpiresAt:          req.ExpiresAt,
		Status:             string(req.Status),
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
	}
}

func (a *API) handleEmergencyRequest(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")

	var body emergencyRequestBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	req, err := a.engine.Request(r.Context(), patientID, emergency.RequestInput{
		RequesterName: body.RequesterName,
		Reason:        body.Reason,
		Notes:         body.Notes,
		ExpiresAt:     body.ExpiresAt,
	})
	if err != nil {
		a.handleEmergencyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmergencyResponse(req))
}

func (a *API) handleEmergencyActive(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")

	reqs, err := a.engine.ActiveForPatient(r.Context(), patientID)
	if err != nil {
		a.handleEmergencyError(w, r, err)
		return
	}
	out := make([]emergencyResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toEmergencyResponse(req))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleEmergencyGet(w http.ResponseWriter, r *http.Request) {
	req, err := a.engine.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		a.handleEmergencyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmergencyResponse(req))
}

func (a *API) handleEmergencyApprove(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	doctorID := r.URL.Query().Get("doctorId")

	req, err := a.engine.Approve(r.Context(), requestID, doctorID)
	if err != nil {
		a.handleEmergencyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmergencyResponse(req))
}

func (a *API) handleEmergencyDeny(w http.ResponseWriter, r *http.Request) {
	req, err := a.engine.Deny(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		a.handleEmergencyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmergencyResponse(req))
}

func (a *API) handleEmergencyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, emergency.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, emergency.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, emergency.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		logger := obs.Logger()
		logger.Error().Err(err).Msg("emergency handler error")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
