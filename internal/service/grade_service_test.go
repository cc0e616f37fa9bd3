package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type mockGradeRepo struct {
	grades   map[string]models.Grade
	levels   map[string]bool
	sections map[string]int
	created  *models.Grade
}

func (m *mockGradeRepo) List(ctx context.Context, filter models.GradeFilter) ([]models.Grade, int, error) {
	return nil, 0, nil
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := m.grades[id]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) ExistsByLevel(ctx context.Context, schoolID string, level int, excludeID string) (bool, error) {
	return m.levels[schoolID], nil
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]models.Grade)
	}
	if grade.ID == "" {
		grade.ID = "new-grade"
	}
	m.grades[grade.ID] = *grade
	m.created = grade
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	m.grades[grade.ID] = *grade
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	delete(m.grades, id)
	return nil
}

func (m *mockGradeRepo) CountSections(ctx context.Context, id string) (int, error) {
	return m.sections[id], nil
}

func TestGradeServiceCreateRejectsDuplicateLevel(t *testing.T) {
	repo := &mockGradeRepo{levels: map[string]bool{"sch-1": true}}
	schools := &mockSchoolLoader{schools: map[string]models.School{
		"sch-1": {ID: "sch-1", TenantID: "ten-1", Name: "Green Valley", Active: true},
	}}
	svc := NewGradeService(repo, schools, nil, nil)

	_, err := svc.Create(context.Background(), CreateGradeRequest{
		SchoolID: "sch-1",
		Name:     "Grade 5",
		Level:    5,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestGradeServiceDeleteGuardsSections(t *testing.T) {
	repo := &mockGradeRepo{
		grades:   map[string]models.Grade{"grd-1": {ID: "grd-1", SchoolID: "sch-1", Level: 5}},
		sections: map[string]int{"grd-1": 2},
	}
	svc := NewGradeService(repo, &mockSchoolLoader{}, nil, nil)

	err := svc.Delete(context.Background(), "grd-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
