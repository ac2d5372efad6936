package citations

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/wikitext"
	"go.uber.org/zap"
)

var (
	errMissingDocuments = errors.New("document source is required")
	errMissingResolver  = errors.New("resolver is required")
	noOpLogger          = zap.NewNop()
)

// DocumentSource fetches the current markup of an article. found is false
// when the article has no content.
type DocumentSource interface {
	FetchContent(ctx context.Context, title string) (content string, found bool, err error)
}

// ServiceConfig describes the collaborators of the reconciliation service.
type ServiceConfig struct {
	Documents DocumentSource
	Resolver  Resolver
	Logger    *zap.Logger
}

// Service runs fetch, extract, correlate, validate and rewrite for one
// request at a time. It holds no per-article state between requests.
type Service struct {
	documents DocumentSource
	resolver  Resolver
	logger    *zap.Logger
}

// NewService validates the configuration and builds a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Documents == nil {
		return nil, errMissingDocuments
	}
	if cfg.Resolver == nil {
		return nil, errMissingResolver
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{
		documents: cfg.Documents,
		resolver:  cfg.Resolver,
		logger:    logger,
	}, nil
}

// Presentation is the list of actionable citations of one article.
type Presentation struct {
	Title   string
	Records []Record
}

// ApplyResult is the outcome of a confirmed submission.
type ApplyResult struct {
	Title     string
	Wikitext  string
	Rewritten int
	Skipped   int
}

// Present computes the citations offered to the user for an article.
func (s *Service) Present(ctx context.Context, title string) (Presentation, error) {
	_, records, err := s.load(ctx, opPresent, title)
	if err != nil {
		return Presentation{}, err
	}
	return Presentation{Title: title, Records: records}, nil
}

// Apply re-derives the citation list from a fresh fetch, validates the whole
// batch against it and only then rewrites. Any failure leaves no mutation.
func (s *Service) Apply(ctx context.Context, title string, batch SelectionBatch) (ApplyResult, error) {
	document, records, err := s.load(ctx, opApply, title)
	if err != nil {
		return ApplyResult{}, err
	}

	edits, err := Validate(records, batch)
	if err != nil {
		s.logError(opApply, err, zap.String("title", title), zap.Int("citations", len(records)), zap.Int("selections", len(batch)))
		return ApplyResult{}, reoperate(opApply, err)
	}

	summary, err := Rewrite(edits)
	if err != nil {
		s.logError(opApply, err, zap.String("title", title))
		return ApplyResult{}, reoperate(opApply, err)
	}

	s.loggerOrDefault().Info("citations rewritten",
		zap.String("title", title),
		zap.Int("rewritten", summary.Rewritten),
		zap.Int("skipped", summary.Skipped))

	return ApplyResult{
		Title:     title,
		Wikitext:  document.String(),
		Rewritten: summary.Rewritten,
		Skipped:   summary.Skipped,
	}, nil
}

func (s *Service) load(ctx context.Context, operation, title string) (*wikitext.Document, []Record, error) {
	content, found, err := s.documents.FetchContent(ctx, title)
	if err != nil {
		wrapped := newError(operation, KindUpstreamResolutionFailure,
			fmt.Errorf("%w: fetch %q: %v", ErrUpstreamResolutionFailure, title, err))
		s.logError(operation, wrapped, zap.String("title", title))
		return nil, nil, wrapped
	}
	if !found {
		return nil, nil, newError(operation, KindMissingDocument, fmt.Errorf("%w: %q", ErrMissingDocument, title))
	}

	document := wikitext.Parse(content)
	records, err := Correlate(ctx, s.resolver, ExtractDOITemplates(document))
	if err != nil {
		s.logError(operation, err, zap.String("title", title))
		return nil, nil, reoperate(operation, err)
	}
	return document, records, nil
}

func (s *Service) logError(operation string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", string(KindOf(err))),
		zap.Error(err),
	}
	attrs = append(attrs, fields...)
	switch KindOf(err) {
	case KindUpstreamResolutionFailure, "":
		s.loggerOrDefault().Error("citations service error", attrs...)
	default:
		s.loggerOrDefault().Warn("citations request rejected", attrs...)
	}
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}
