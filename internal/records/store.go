package records

import "context"

// Store describes the persistence consumed by Service.
type Store interface {
	CreatePatient(ctx context.Context, p *Patient) error
	FindPatient(ctx context.Context, id string) (*Patient, error)
	ListPatients(ctx context.Context) ([]*Patient, error)
	PatientExists(ctx context.Context, id string) (bool, error)

	CreateDoctor(ctx context.Context, d *Doctor) error
	FindDoctor(ctx context.Context, id string) (*Doctor, error)
	FindDoctorByEmail(ctx context.Context, email string) (*Doctor, error)
	DoctorExists(ctx context.Context, id string) (bool, error)

	CreateReport(ctx context.Context, r *MedicalReport) error
	FindReport(ctx context.Context, id string) (*MedicalReport, error)
	ReportsForPatient(ctx context.Context, patientID string) ([]*MedicalReport, error)
}
