package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shikshahub/shiksha-api/internal/models"
	appErrors "github.com/shikshahub/shiksha-api/pkg/errors"
)

type termLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Term, error)
}

type holidayLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.Holiday, error)
}

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CalendarService assembles a session's full calendar, serving repeat reads
// from Redis. Writes to terms and holidays invalidate the cached entry.
type CalendarService struct {
	sessions sessionLoader
	terms    termLister
	holidays holidayLister
	cache    calendarCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCalendarService creates a new calendar service instance. A zero ttl
// disables caching.
func NewCalendarService(sessions sessionLoader, terms termLister, holidays holidayLister, cache calendarCache, ttl time.Duration, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{sessions: sessions, terms: terms, holidays: holidays, cache: cache, ttl: ttl, logger: logger}
}

func calendarKey(sessionID string) string {
	return fmt.Sprintf("calendar:%s", sessionID)
}

// Get returns the session together with its terms and holidays.
func (s *CalendarService) Get(ctx context.Context, sessionID string) (*models.SessionCalendar, error) {
	if s.cacheEnabled() {
		var cached models.SessionCalendar
		err := s.cache.Get(ctx, calendarKey(sessionID), &cached)
		if err == nil {
			return &cached, nil
		}
		if err != appErrors.ErrCacheMiss {
			s.logger.Warn("calendar cache read failed", zap.Error(err), zap.String("session_id", sessionID))
		}
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	terms, err := s.terms.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session terms")
	}

	holidays, err := s.holidays.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session holidays")
	}

	calendar := &models.SessionCalendar{
		Session:  *session,
		Terms:    terms,
		Holidays: holidays,
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, calendarKey(sessionID), calendar, s.ttl); err != nil {
			s.logger.Warn("calendar cache write failed", zap.Error(err), zap.String("session_id", sessionID))
		}
	}

	return calendar, nil
}

// Invalidate drops the cached calendar for a session.
func (s *CalendarService) Invalidate(ctx context.Context, sessionID string) error {
	if !s.cacheEnabled() {
		return nil
	}
	return s.cache.DeleteByPattern(ctx, calendarKey(sessionID))
}

func (s *CalendarService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}
