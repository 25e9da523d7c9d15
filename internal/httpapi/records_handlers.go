package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medvault.org/internal/audit"
	"medvault.org/internal/auth"
	"medvault.org/internal/obs"
	"medvault.org/internal/records"
)

type patientRequest struct {
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	MRN         string    `json:"mrn"`
}

type patientResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	DateOfBirth time.Time `json:"dateOfBirth"`
	MRN         string    `json:"mrn,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toPatientResponse(p *records.Patient) patientResponse {
	return patientResponse{
		ID:          p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: p.DateOfBirth,
		MRN:         p.MRN,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (a *API) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var req patientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	patient, err := a.records.CreatePatient(r.Context(), records.Patient{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		MRN:         req.MRN,
	})
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}

	obs.PatientsCreated.Inc()
	writeJSON(w, http.StatusCreated, toPatientResponse(patient))
}

func (a *API) handleListPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := a.records.ListPatients(r.Context())
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}
	out := make([]patientResponse, 0, len(patients))
	for _, p := range patients {
		out = append(out, toPatientResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "patientID")
	patient, err := a.records.GetPatient(r.Context(), id)
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}

	a.recordPatientAccess(r, patient.ID)
	writeJSON(w, http.StatusOK, toPatientResponse(patient))
}

type doctorRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
}

type doctorResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Specialty string    `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toDoctorResponse(d *records.Doctor) doctorResponse {
	return doctorResponse{
		ID:        d.ID,
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Specialty: d.Specialty,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (a *API) handleCreateDoctor(w http.ResponseWriter, r *http.Request) {
	var req doctorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	doctor, err := a.records.CreateDoctor(r.Context(), records.Doctor{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Specialty: req.Specialty,
	})
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDoctorResponse(doctor))
}

func (a *API) handleGetDoctor(w http.ResponseWriter, r *http.Request) {
	doctor, err := a.records.GetDoctor(r.Context(), chi.URLParam(r, "doctorID"))
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDoctorResponse(doctor))
}

type reportRequest struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	DocumentURI string `json:"documentUri"`
}

type reportResponse struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	DocumentURI string    `json:"documentUri,omitempty"`
	CreatedBy   string    `json:"createdBy,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toReportResponse(rep *records.MedicalReport) reportResponse {
	return reportResponse{
		ID:          rep.ID,
		PatientID:   rep.PatientID,
		Title:       rep.Title,
		Summary:     rep.Summary,
		DocumentURI: rep.DocumentURI,
		CreatedBy:   rep.CreatedBy,
		CreatedAt:   rep.CreatedAt,
	}
}

func (a *API) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	createdBy := ""
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		createdBy = id.UserID
	}

	report, err := a.records.CreateReport(r.Context(), records.MedicalReport{
		PatientID:   chi.URLParam(r, "patientID"),
		Title:       req.Title,
		Summary:     req.Summary,
		DocumentURI: req.DocumentURI,
		CreatedBy:   createdBy,
	})
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}

	obs.ReportsCreated.Inc()
	_ = a.sink.Record(r.Context(), audit.EventReportCreated, map[string]any{
		"report_id":  report.ID,
		"patient_id": report.PatientID,
		"created_by": createdBy,
	})
	writeJSON(w, http.StatusCreated, toReportResponse(report))
}

func (a *API) handleGetReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.records.GetReport(r.Context(), chi.URLParam(r, "reportID"))
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}

	a.recordPatientAccess(r, report.PatientID)
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (a *API) handleReportsForPatient(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	reports, err := a.records.ReportsForPatient(r.Context(), patientID)
	if err != nil {
		a.handleRecordsError(w, r, err)
		return
	}

	a.recordPatientAccess(r, patientID)
	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportResponse(rep))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) recordPatientAccess(r *http.Request, patientID string) {
	fields := map[string]any{"patient_id": patientID}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		fields["user_id"] = id.UserID
	}
	_ = a.sink.Record(r.Context(), audit.EventPatientAccess, fields)
}

func (a *API) handleRecordsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, records.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, records.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		logger := obs.Logger()
		logger.Error().Err(err).Msg("records handler error")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
