package service

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/academic"
	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
	"github.com/shikshahub/shiksha-api/pkg/export"
)

type rosterLister interface {
	ListActiveBySection(ctx context.Context, sectionID string) ([]models.EnrollmentDetail, error)
}

type sectionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

// FileExport is a rendered document ready to stream to the client.
type FileExport struct {
	FileName    string
	ContentType string
	Content     []byte
}

// RosterService renders section rosters as CSV or PDF documents.
type RosterService struct {
	enrollments rosterLister
	sections    sectionFinder
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewRosterService creates a new roster export service instance.
func NewRosterService(enrollments rosterLister, sections sectionFinder, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{enrollments: enrollments, sections: sections, csv: csv, pdf: pdf, logger: logger}
}

var rosterHeaders = []string{"Admission No", "Student Name", "Grade", "Section", "Enrolled On"}

// Export renders the active roster of a section in the requested format.
// Supported formats are "csv" and "pdf".
func (s *RosterService) Export(ctx context.Context, sectionID, format string) (*FileExport, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	roster, err := s.enrollments.ListActiveBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section roster")
	}

	table := export.Table{Headers: rosterHeaders}
	for _, entry := range roster {
		table.Rows = append(table.Rows, map[string]string{
			"Admission No": entry.AdmissionNo,
			"Student Name": entry.StudentName,
			"Grade":        entry.GradeName,
			"Section":      entry.SectionName,
			"Enrolled On":  entry.EnrolledAt.Format(academic.DateLayout),
		})
	}

	switch format {
	case "csv":
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster csv")
		}
		return &FileExport{
			FileName:    fmt.Sprintf("roster-%s.csv", section.ID),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case "pdf":
		title := fmt.Sprintf("Section Roster: %s", section.Name)
		content, err := s.pdf.Render(table, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster pdf")
		}
		return &FileExport{
			FileName:    fmt.Sprintf("roster-%s.pdf", section.ID),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use csv or pdf")
	}
}
