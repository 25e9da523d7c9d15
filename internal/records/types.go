package records

import "time"

// Patient is the clinical record subject.
type Patient struct {
	ID          string
	FirstName   string
	LastName    string
	DateOfBirth time.Time
	MRN         string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Doctor is a credentialed clinician who can approve emergency access.
type Doctor struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Specialty string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MedicalReport is a clinical document attached to a patient.
type MedicalReport struct {
	ID          string
	PatientID   string
	Title       string
	Summary     string
	DocumentURI string
	CreatedBy   string
	CreatedAt   time.Time
}
