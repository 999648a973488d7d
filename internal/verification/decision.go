package verification

import (
	"strings"

	"kyc-review-api/internal/models"
)

// Decision is a reviewer's outcome for one task.
type Decision struct {
	TaskID          uint
	Outcome         models.KYCAction
	RejectionReason string
}

// Validate checks the outcome and that a reject carries a non-blank reason.
func (d Decision) Validate() error {
	if !d.Outcome.Valid() {
		return &ValidationError{Field: "outcome", Message: "must be approve or reject"}
	}
	if d.Outcome == models.ActionReject && strings.TrimSpace(d.RejectionReason) == "" {
		return &ValidationError{Field: "rejectionReason", Message: "a reason is required to reject"}
	}
	return nil
}

// StatusUpdate is the payload that records d on the task store.
// The reason is only sent with a reject.
func (d Decision) StatusUpdate() models.TaskStatusUpdate {
	u := models.TaskStatusUpdate{
		Status:    models.StatusCompleted,
		KYCAction: d.Outcome,
	}
	if d.Outcome == models.ActionReject {
		u.RejectionReason = strings.TrimSpace(d.RejectionReason)
	}
	return u
}
