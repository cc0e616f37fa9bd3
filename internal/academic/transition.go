package academic

import (
	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

// AdmissionAction is a requested admission status change.
type AdmissionAction string

const (
	AdmissionActionApprove AdmissionAction = "approve"
	AdmissionActionReject  AdmissionAction = "reject"
)

// EnrollmentAction is a requested enrollment status change.
type EnrollmentAction string

const (
	EnrollmentActionWithdraw EnrollmentAction = "withdraw"
	EnrollmentActionTransfer EnrollmentAction = "transfer"
)

// Explicit transition tables. A pair absent from the table is an invalid
// transition; APPROVED, REJECTED, WITHDRAWN and TRANSFERRED have no
// outgoing edges.
var admissionTransitions = map[models.AdmissionStatus]map[AdmissionAction]models.AdmissionStatus{
	models.AdmissionStatusPending: {
		AdmissionActionApprove: models.AdmissionStatusApproved,
		AdmissionActionReject:  models.AdmissionStatusRejected,
	},
}

var enrollmentTransitions = map[models.EnrollmentStatus]map[EnrollmentAction]models.EnrollmentStatus{
	models.EnrollmentStatusActive: {
		EnrollmentActionWithdraw: models.EnrollmentStatusWithdrawn,
		EnrollmentActionTransfer: models.EnrollmentStatusTransferred,
	},
}

// NextAdmissionStatus resolves the status an admission moves to when the
// action is applied, or INVALID_TRANSITION when the table has no edge.
func NextAdmissionStatus(current models.AdmissionStatus, action AdmissionAction) (models.AdmissionStatus, error) {
	if next, ok := admissionTransitions[current][action]; ok {
		return next, nil
	}
	return "", appErrors.ErrInvalidTransition
}

// NextEnrollmentStatus resolves the status an enrollment moves to when the
// action is applied, or INVALID_TRANSITION when the table has no edge.
func NextEnrollmentStatus(current models.EnrollmentStatus, action EnrollmentAction) (models.EnrollmentStatus, error) {
	if next, ok := enrollmentTransitions[current][action]; ok {
		return next, nil
	}
	return "", appErrors.ErrInvalidTransition
}
