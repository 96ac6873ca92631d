package model

import "time"

// Dispatch outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// EmailMetadata is the user-entered description of a page that is
// embedded in the email body.
type EmailMetadata struct {
	Edition     string `json:"edition"`
	Publication string `json:"publication"`
	Date        string `json:"date"`
}

// Dispatch records one email send attempt and its terminal outcome.
type Dispatch struct {
	ID        string    `json:"id" db:"id"`
	FileID    string    `json:"file_id" db:"file_id"`
	FileName  string    `json:"file_name" db:"file_name"`
	ToAddress string    `json:"to_address" db:"to_address"`
	Outcome   string    `json:"outcome" db:"outcome"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Succeeded reports whether the relay acknowledged the attempt.
func (d Dispatch) Succeeded() bool {
	return d.Outcome == OutcomeSuccess
}
