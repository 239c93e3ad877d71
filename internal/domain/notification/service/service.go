package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vadim/neo-studio/internal/domain/notification/entity"
)

// DefaultRecentLimit is used when Recent is called without a limit
const DefaultRecentLimit = 20

// Repository defines the storage used by the service
type Repository interface {
	Save(ctx context.Context, n entity.Notification) error
	Recent(ctx context.Context, limit int) ([]entity.Notification, error)
}

// Service records action outcomes so they can be shown to the user
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new notification service
func New(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Notify records a notification. Storage failures are logged, never
// returned: a lost toast must not fail the action it reports on.
func (s *Service) Notify(ctx context.Context, level entity.Level, message, detail string) entity.Notification {
	n := entity.New(level, message, detail, s.now())
	if err := s.repo.Save(ctx, n); err != nil {
		s.logger.Error("failed to save notification", "error", err, "message", message)
	}
	return n
}

// Success records a successful action
func (s *Service) Success(ctx context.Context, message string) {
	s.Notify(ctx, entity.LevelSuccess, message, "")
}

// Failure records a failed action with the error text as detail
func (s *Service) Failure(ctx context.Context, message string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	s.logger.Warn(message, "error", err)
	s.Notify(ctx, entity.LevelError, message, detail)
}

// Info records an informational message
func (s *Service) Info(ctx context.Context, message string) {
	s.Notify(ctx, entity.LevelInfo, message, "")
}

// Recent returns the latest notifications, newest first
func (s *Service) Recent(ctx context.Context, limit int) ([]entity.Notification, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	out, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return out, nil
}
