package repositories

import (
	"fmt"

	"github.com/google/uuid"

	"example.com/maison/services/payroll/internal/models"
)

// Common repository errors
var (
	ErrNotFound       = fmt.Errorf("record not found")
	ErrStaleState     = fmt.Errorf("row not in expected state")
	ErrDuplicateKey   = fmt.Errorf("duplicate key violation")
	ErrAmbiguousRate  = fmt.Errorf("more than one rate card for combination")
	ErrUnfinishedWork = fmt.Errorf("item has assignments outside payable states")
	ErrPaidWork       = fmt.Errorf("item has paid assignments")
)

// BatchMemberError identifies the assignment that broke a payment batch and
// the state it was actually in when the batch ran.
type BatchMemberError struct {
	AssignmentID uuid.UUID
	Status       models.AssignmentStatus
}

func (e *BatchMemberError) Error() string {
	return fmt.Sprintf("assignment %s is %s, expected %s", e.AssignmentID, e.Status, models.AssignmentQCPassed)
}
