package ai

import "time"

// RequestLog statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// RequestLog is one traced call to the analysis service.
type RequestLog struct {
	ID              string
	RequestType     string
	Status          string
	ResponseSummary string
	CreatedAt       time.Time
}
