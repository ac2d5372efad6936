package edits

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

// ServiceError reports a failed audit operation with an "operation.reason" code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew    = "edits.service.new"
	opRecord        = "edits.record"
	opListForTitle  = "edits.list_for_title"
	defaultListSize = 50
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
}

type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	if cfg.IDProvider == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Record persists one applied batch and returns the stored row.
func (s *Service) Record(ctx context.Context, entry Entry) (EditRecord, error) {
	valid, err := entry.validate()
	if err != nil {
		s.logError(opRecord, "invalid_entry", err, zap.String("title", entry.Title))
		return EditRecord{}, newServiceError(opRecord, "invalid_entry", err)
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opRecord, "id_generation_failed", err, zap.String("title", valid.Title))
		return EditRecord{}, newServiceError(opRecord, "id_generation_failed", err)
	}

	record := EditRecord{
		ID:               id,
		Title:            valid.Title,
		Editor:           valid.Editor,
		Rewritten:        valid.Rewritten,
		Skipped:          valid.Skipped,
		AppliedAtSeconds: s.clock().UTC().Unix(),
	}
	if len(valid.Selections) > 0 {
		record.Selections = datatypes.JSON(valid.Selections)
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opRecord, "insert_failed", err, zap.String("title", valid.Title))
		return EditRecord{}, newServiceError(opRecord, "insert_failed", err)
	}

	s.loggerOrDefault().Info("edit recorded",
		zap.String("edit_id", record.ID),
		zap.String("title", record.Title),
		zap.String("editor", record.Editor),
		zap.Int("rewritten", record.Rewritten))
	return record, nil
}

// ListForTitle returns the most recent edits of an article, newest first.
func (s *Service) ListForTitle(ctx context.Context, title string, limit int) ([]EditRecord, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		s.logError(opListForTitle, "missing_title", ErrInvalidTitle)
		return nil, newServiceError(opListForTitle, "missing_title", ErrInvalidTitle)
	}
	if limit <= 0 {
		limit = defaultListSize
	}

	var records []EditRecord
	if err := s.db.WithContext(ctx).
		Where("title = ?", trimmed).
		Order("applied_at_s DESC").
		Order("edit_id DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		s.logError(opListForTitle, "query_failed", err, zap.String("title", trimmed))
		return nil, newServiceError(opListForTitle, "query_failed", err)
	}
	return records, nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil {
		return noOpLogger
	}
	if s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("edits service error", attrs...)
}
