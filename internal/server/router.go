package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/citations"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/edits"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/mediawiki"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	editorContextKey = "linkrot_editor"
	articlePrefix    = "/article/"
	categoryPrefix   = "/category/"
	historyPrefix    = "/history/"
	historyLimit     = 50
)

var (
	errMissingCitationService = errors.New("citation service dependency required")
	errMissingWikiClient      = errors.New("wiki client dependency required")
	errMissingEditLog         = errors.New("edit log dependency required")
	errMissingArticleCatalog  = errors.New("article catalog dependency required")
)

// CitationService presents and applies citation rewrites.
type CitationService interface {
	Present(ctx context.Context, title string) (citations.Presentation, error)
	Apply(ctx context.Context, title string, batch citations.SelectionBatch) (citations.ApplyResult, error)
}

// WikiClient supplies article metadata and category listings.
type WikiClient interface {
	ArticleProps(ctx context.Context, title string) (mediawiki.ArticleProps, error)
	CategoryMembers(ctx context.Context, category string) ([]mediawiki.CategoryMember, error)
}

// EditLog records applied rewrites.
type EditLog interface {
	Record(ctx context.Context, entry edits.Entry) (edits.EditRecord, error)
	ListForTitle(ctx context.Context, title string, limit int) ([]edits.EditRecord, error)
}

// ArticleCatalog lists the articles offered on the index route.
type ArticleCatalog interface {
	Titles(ctx context.Context) ([]string, error)
}

// SessionValidator authenticates editors from the request cookie.
type SessionValidator interface {
	ValidateRequest(r *http.Request) (auth.SessionClaims, error)
}

// Dependencies wires the HTTP handler. Sessions is optional; without it
// saves are anonymous.
type Dependencies struct {
	Citations CitationService
	Wiki      WikiClient
	Edits     EditLog
	Articles  ArticleCatalog
	Sessions  SessionValidator
	Logger    *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Citations == nil {
		return nil, errMissingCitationService
	}
	if deps.Wiki == nil {
		return nil, errMissingWikiClient
	}
	if deps.Edits == nil {
		return nil, errMissingEditLog
	}
	if deps.Articles == nil {
		return nil, errMissingArticleCatalog
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.AccessLog(logger))
	router.Use(corsMiddleware())

	handler := &httpHandler{
		citations: deps.Citations,
		wiki:      deps.Wiki,
		edits:     deps.Edits,
		articles:  deps.Articles,
		sessions:  deps.Sessions,
		logger:    logger,
	}

	router.GET("/", handler.handleIndex)
	router.GET(categoryPrefix+"*category", handler.handleCategory)
	router.GET(articlePrefix+"*title", handler.handleArticle)
	router.GET(historyPrefix+"*title", handler.handleHistory)

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.POST("/save/*title", handler.handleSave)

	return router, nil
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

type httpHandler struct {
	citations CitationService
	wiki      WikiClient
	edits     EditLog
	articles  ArticleCatalog
	sessions  SessionValidator
	logger    *zap.Logger
}

func (h *httpHandler) handleIndex(c *gin.Context) {
	titles, err := h.articles.Titles(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list articles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "articles_unavailable"})
		return
	}
	c.JSON(http.StatusOK, indexResponsePayload{Articles: titles})
}

func (h *httpHandler) handleCategory(c *gin.Context) {
	category, ok := h.pathTitle(c, categoryPrefix, "category")
	if !ok {
		return
	}

	members, err := h.wiki.CategoryMembers(c.Request.Context(), category)
	if err != nil {
		h.logger.Error("failed to list category members", zap.String("category", category), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": string(citations.KindUpstreamResolutionFailure)})
		return
	}
	c.JSON(http.StatusOK, newCategoryPayload(category, members))
}

func (h *httpHandler) handleArticle(c *gin.Context) {
	title, ok := h.pathTitle(c, articlePrefix, "title")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	props, err := h.wiki.ArticleProps(ctx, title)
	if err != nil {
		h.logger.Error("failed to load article props", zap.String("title", title), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": string(citations.KindUpstreamResolutionFailure)})
		return
	}

	presentation, err := h.citations.Present(ctx, title)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newArticlePayload(props, presentation))
}

func (h *httpHandler) handleHistory(c *gin.Context) {
	title, ok := h.pathTitle(c, historyPrefix, "title")
	if !ok {
		return
	}
	records, err := h.edits.ListForTitle(c.Request.Context(), title, historyLimit)
	if err != nil {
		h.logger.Error("failed to list edits", zap.String("title", title), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history_unavailable"})
		return
	}
	c.JSON(http.StatusOK, newHistoryPayload(title, records))
}

func (h *httpHandler) handleSave(c *gin.Context) {
	title := titleFromPath(c.Param("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_title"})
		return
	}

	batch, err := bindSelections(c)
	if err != nil {
		h.logger.Warn("invalid selection submission", zap.String("title", title), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	ctx := c.Request.Context()
	result, err := h.citations.Apply(ctx, title, batch)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.Rewritten > 0 {
		entry := edits.Entry{
			Title:      result.Title,
			Editor:     c.GetString(editorContextKey),
			Rewritten:  result.Rewritten,
			Skipped:    result.Skipped,
			Selections: encodeSelections(batch),
		}
		if _, err := h.edits.Record(ctx, entry); err != nil {
			h.logger.Error("failed to record edit", zap.String("title", title), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, saveResponsePayload{
		Title:     result.Title,
		Wikitext:  result.Wikitext,
		Rewritten: result.Rewritten,
		Skipped:   result.Skipped,
	})
}

// authorizeRequest requires an editor session when a validator is configured.
func (h *httpHandler) authorizeRequest(c *gin.Context) {
	if h.sessions == nil {
		c.Next()
		return
	}
	claims, err := h.sessions.ValidateRequest(c.Request)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredSessionToken) || errors.Is(err, auth.ErrMissingSessionToken) {
			h.logger.Info("session validation failed", zap.Error(err))
		} else {
			h.logger.Warn("session validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set(editorContextKey, claims.Editor())
	c.Next()
}

// pathTitle reads a catch-all title. Titles containing spaces are redirected
// to their underscored form; underscores become spaces for lookup.
func (h *httpHandler) pathTitle(c *gin.Context, prefix, param string) (string, bool) {
	raw := strings.TrimPrefix(c.Param(param), "/")
	if strings.Contains(raw, " ") {
		location := (&url.URL{Path: prefix + strings.ReplaceAll(raw, " ", "_"), RawQuery: c.Request.URL.RawQuery}).String()
		c.Redirect(http.StatusMovedPermanently, location)
		return "", false
	}
	title := titleFromPath(raw)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_title"})
		return "", false
	}
	return title, true
}

func titleFromPath(raw string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(raw, "/"), "_", " "))
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	kind := citations.KindOf(err)
	status := statusForKind(kind)
	body := gin.H{"error": string(kind)}
	if kind == "" {
		body["error"] = "internal_error"
	}
	var typed *citations.Error
	if errors.As(err, &typed) {
		body["code"] = typed.Code()
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("citation request failed", zap.Int("status", status), zap.Error(err))
	} else {
		h.logger.Info("citation request rejected", zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, body)
}

func statusForKind(kind citations.Kind) int {
	switch kind {
	case citations.KindMissingDocument:
		return http.StatusNotFound
	case citations.KindSelectionCountMismatch, citations.KindSelectionDOIMismatch, citations.KindSelectionIndexOutOfRange:
		return http.StatusConflict
	case citations.KindMalformedArchiveURL:
		return http.StatusUnprocessableEntity
	case citations.KindUpstreamResolutionFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
