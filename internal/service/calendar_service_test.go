package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type mockTermLister struct {
	terms map[string][]models.Term
	calls int
}

func (m *mockTermLister) ListBySession(ctx context.Context, sessionID string) ([]models.Term, error) {
	m.calls++
	return m.terms[sessionID], nil
}

type mockHolidayLister struct {
	holidays map[string][]models.Holiday
}

func (m *mockHolidayLister) ListBySession(ctx context.Context, sessionID string) ([]models.Holiday, error) {
	return m.holidays[sessionID], nil
}

type mockCache struct {
	store   map[string][]byte
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.store == nil {
		m.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(m.store, pattern)
	m.deleted = append(m.deleted, pattern)
	return nil
}

func TestCalendarServiceGetAssemblesAndCaches(t *testing.T) {
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	terms := &mockTermLister{terms: map[string][]models.Term{
		"ses-1": {{ID: "term-1", AcademicSessionID: "ses-1", Name: "Term 1"}},
	}}
	holidays := &mockHolidayLister{holidays: map[string][]models.Holiday{
		"ses-1": {{ID: "hol-1", AcademicSessionID: "ses-1", Name: "Christmas"}},
	}}
	cache := &mockCache{}
	svc := NewCalendarService(sessions, terms, holidays, cache, 10*time.Minute, nil)

	calendar, err := svc.Get(context.Background(), "ses-1")
	require.NoError(t, err)
	assert.Equal(t, "ses-1", calendar.Session.ID)
	require.Len(t, calendar.Terms, 1)
	require.Len(t, calendar.Holidays, 1)
	assert.Equal(t, 1, terms.calls)

	// Second read is served from cache without touching the listers.
	again, err := svc.Get(context.Background(), "ses-1")
	require.NoError(t, err)
	assert.Equal(t, calendar.Session.ID, again.Session.ID)
	assert.Equal(t, 1, terms.calls)
}

func TestCalendarServiceInvalidateDropsCachedEntry(t *testing.T) {
	sessions := &mockSessionLoader{sessions: map[string]models.AcademicSession{"ses-1": schoolYearSession("ses-1")}}
	terms := &mockTermLister{}
	holidays := &mockHolidayLister{}
	cache := &mockCache{}
	svc := NewCalendarService(sessions, terms, holidays, cache, 10*time.Minute, nil)

	_, err := svc.Get(context.Background(), "ses-1")
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background(), "ses-1"))

	_, err = svc.Get(context.Background(), "ses-1")
	require.NoError(t, err)
	assert.Equal(t, 2, terms.calls)
}

func TestCalendarServiceUnknownSession(t *testing.T) {
	sessions := &mockSessionLoader{}
	svc := NewCalendarService(sessions, &mockTermLister{}, &mockHolidayLister{}, nil, 0, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
