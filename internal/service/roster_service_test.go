package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
	"github.com/shikshahub/shiksha-api/pkg/export"
)

type mockRosterLister struct {
	roster []models.EnrollmentDetail
}

func (m *mockRosterLister) ListActiveBySection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error) {
	return m.roster, nil
}

type mockSectionFinder struct {
	sections map[string]*models.Section
}

func (m *mockSectionFinder) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if section, ok := m.sections[id]; ok {
		return section, nil
	}
	return nil, sql.ErrNoRows
}

func newRosterFixture() (*RosterService, *mockRosterLister) {
	roster := &mockRosterLister{
		roster: []models.EnrollmentDetail{
			{
				Enrollment: models.Enrollment{
					ID:         "enr-1",
					EnrolledAt: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC),
				},
				StudentName: "Asha Verma",
				AdmissionNo: "ADM-001",
				SectionName: "A",
				GradeName:   "Grade 5",
			},
		},
	}
	sections := &mockSectionFinder{sections: map[string]*models.Section{
		"sec-1": {ID: "sec-1", GradeID: "gr-1", Name: "A", Active: true},
	}}
	svc := NewRosterService(roster, sections, export.NewCSVExporter(), export.NewPDFExporter("Shiksha School Network"), nil)
	return svc, roster
}

func TestRosterExportCSV(t *testing.T) {
	svc, _ := newRosterFixture()

	out, err := svc.Export(context.Background(), "sec-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.Equal(t, "roster-sec-1.csv", out.FileName)

	body := string(out.Content)
	assert.True(t, strings.HasPrefix(body, "Admission No,Student Name,Grade,Section,Enrolled On"))
	assert.Contains(t, body, "ADM-001,Asha Verma,Grade 5,A,2025-04-07")
}

func TestRosterExportPDF(t *testing.T) {
	svc, _ := newRosterFixture()

	out, err := svc.Export(context.Background(), "sec-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.Equal(t, "roster-sec-1.pdf", out.FileName)
	assert.True(t, strings.HasPrefix(string(out.Content), "%PDF"))
}

func TestRosterExportUnknownFormat(t *testing.T) {
	svc, _ := newRosterFixture()

	_, err := svc.Export(context.Background(), "sec-1", "xlsx")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRosterExportUnknownSection(t *testing.T) {
	svc, _ := newRosterFixture()

	_, err := svc.Export(context.Background(), "missing", "csv")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

type mockAdmissionDetailFinder struct {
	details map[string]*models.AdmissionDetail
}

func (m *mockAdmissionDetailFinder) FindDetailByID(ctx context.Context, id string) (*models.AdmissionDetail, error) {
	if detail, ok := m.details[id]; ok {
		return detail, nil
	}
	return nil, sql.ErrNoRows
}

func TestAdmissionLetterApproved(t *testing.T) {
	finder := &mockAdmissionDetailFinder{details: map[string]*models.AdmissionDetail{
		"adm-1": {
			StudentAdmission: models.StudentAdmission{
				ID:            "adm-1",
				Status:        models.AdmissionStatusApproved,
				AdmissionDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			},
			StudentName: "Asha Verma",
			SchoolName:  "Green Valley School",
			GradeName:   "Grade 5",
		},
	}}
	svc := NewLetterService(finder, export.NewPDFExporter("Shiksha School Network"), nil)

	letter, err := svc.AdmissionLetter(context.Background(), "adm-1")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", letter.ContentType)
	assert.Equal(t, "admission-letter-adm-1.pdf", letter.FileName)
	assert.True(t, strings.HasPrefix(string(letter.Content), "%PDF"))
}

func TestAdmissionLetterRequiresApproval(t *testing.T) {
	finder := &mockAdmissionDetailFinder{details: map[string]*models.AdmissionDetail{
		"adm-1": {
			StudentAdmission: models.StudentAdmission{ID: "adm-1", Status: models.AdmissionStatusPending},
			StudentName:      "Asha Verma",
		},
	}}
	svc := NewLetterService(finder, export.NewPDFExporter(""), nil)

	_, err := svc.AdmissionLetter(context.Background(), "adm-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}
