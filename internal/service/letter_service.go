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

type admissionDetailFinder interface {
	FindDetailByID(ctx context.Context, id string) (*models.AdmissionDetail, error)
}

// LetterService renders admission letters as PDF documents. Letters are only
// issued for approved admissions.
type LetterService struct {
	admissions admissionDetailFinder
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewLetterService creates a new admission letter service instance.
func NewLetterService(admissions admissionDetailFinder, pdf *export.PDFExporter, logger *zap.Logger) *LetterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LetterService{admissions: admissions, pdf: pdf, logger: logger}
}

// AdmissionLetter renders the admission letter for an approved admission.
func (s *LetterService) AdmissionLetter(ctx context.Context, admissionID string) (*FileExport, error) {
	detail, err := s.admissions.FindDetailByID(ctx, admissionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "admission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load admission")
	}

	if detail.Status != models.AdmissionStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "admission letter requires an approved admission")
	}

	paragraphs := []string{
		fmt.Sprintf("Dear %s,", detail.StudentName),
		fmt.Sprintf("We are pleased to confirm your admission to %s in %s, effective %s.",
			detail.SchoolName, detail.GradeName, detail.AdmissionDate.Format(academic.DateLayout)),
		"Please report to the school office with this letter and your original documents to complete the joining formalities.",
		"We look forward to welcoming you.",
	}
	if detail.Remarks != "" {
		paragraphs = append(paragraphs, fmt.Sprintf("Note: %s", detail.Remarks))
	}

	content, err := s.pdf.Letter("Admission Letter", paragraphs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render admission letter")
	}

	return &FileExport{
		FileName:    fmt.Sprintf("admission-letter-%s.pdf", detail.ID),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}
