package academic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

func TestNextAdmissionStatus(t *testing.T) {
	next, err := NextAdmissionStatus(models.AdmissionStatusPending, AdmissionActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusApproved, next)

	next, err = NextAdmissionStatus(models.AdmissionStatusPending, AdmissionActionReject)
	require.NoError(t, err)
	assert.Equal(t, models.AdmissionStatusRejected, next)
}

func TestAdmissionTerminalStatesHaveNoEdges(t *testing.T) {
	for _, status := range []models.AdmissionStatus{models.AdmissionStatusApproved, models.AdmissionStatusRejected} {
		for _, action := range []AdmissionAction{AdmissionActionApprove, AdmissionActionReject} {
			_, err := NextAdmissionStatus(status, action)
			assert.ErrorIs(t, err, appErrors.ErrInvalidTransition, "%s + %s", status, action)
		}
	}
}

func TestNextEnrollmentStatus(t *testing.T) {
	next, err := NextEnrollmentStatus(models.EnrollmentStatusActive, EnrollmentActionWithdraw)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, next)

	next, err = NextEnrollmentStatus(models.EnrollmentStatusActive, EnrollmentActionTransfer)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusTransferred, next)
}

func TestEnrollmentTerminalStatesHaveNoEdges(t *testing.T) {
	for _, status := range []models.EnrollmentStatus{models.EnrollmentStatusWithdrawn, models.EnrollmentStatusTransferred} {
		for _, action := range []EnrollmentAction{EnrollmentActionWithdraw, EnrollmentActionTransfer} {
			_, err := NextEnrollmentStatus(status, action)
			assert.ErrorIs(t, err, appErrors.ErrInvalidTransition, "%s + %s", status, action)
		}
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	_, err := NextAdmissionStatus(models.AdmissionStatus("UNKNOWN"), AdmissionActionApprove)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	_, err = NextEnrollmentStatus(models.EnrollmentStatus(""), EnrollmentActionWithdraw)
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}
