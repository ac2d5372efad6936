package main

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/archival"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/articles"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/citations"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/config"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/database"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/doicache"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/edits"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/logging"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/mediawiki"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/server"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the collaborators shared by the serve and inspect commands.
type application struct {
	config    config.AppConfig
	logger    *zap.Logger
	db        *gorm.DB
	wiki      *mediawiki.Client
	citations *citations.Service
	edits     *edits.Service
}

func buildApplication(appConfig config.AppConfig) (*application, error) {
	logger, err := logging.NewLogger(appConfig.LogLevel, appConfig.LogEncoding)
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return nil, err
	}

	store, err := doicache.NewStore(doicache.StoreConfig{Database: db, TTL: appConfig.CacheTTL})
	if err != nil {
		return nil, err
	}
	cache := doicache.NewTiered(
		doicache.NewMemory(doicache.MemoryConfig{Capacity: appConfig.CacheCapacity, TTL: appConfig.CacheTTL}),
		store,
	)

	httpClient := &http.Client{Timeout: appConfig.UpstreamTimeout}
	fatcat := archival.NewClient(
		archival.WithHTTPClient(httpClient),
		archival.WithBaseURL(appConfig.FatcatAPIURL),
		archival.WithUserAgent(appConfig.UserAgent),
		archival.WithRateLimit(appConfig.RequestsPerSecond),
		archival.WithCache(cache),
		archival.WithLogger(logger),
	)
	wiki := mediawiki.NewClient(
		mediawiki.WithHTTPClient(httpClient),
		mediawiki.WithAPIURL(appConfig.MediaWikiAPIURL),
		mediawiki.WithUserAgent(appConfig.UserAgent),
		mediawiki.WithRateLimit(appConfig.RequestsPerSecond),
		mediawiki.WithLogger(logger),
	)

	citationService, err := citations.NewService(citations.ServiceConfig{
		Documents: wiki,
		Resolver:  fatcat,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	editService, err := edits.NewService(edits.ServiceConfig{
		Database:   db,
		IDProvider: edits.NewUUIDProvider(),
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &application{
		config:    appConfig,
		logger:    logger,
		db:        db,
		wiki:      wiki,
		citations: citationService,
		edits:     editService,
	}, nil
}

func (a *application) httpHandler() (http.Handler, error) {
	catalog, err := articles.NewFileCatalog(a.config.ArticlesPath)
	if err != nil {
		return nil, err
	}

	deps := server.Dependencies{
		Citations: a.citations,
		Wiki:      a.wiki,
		Edits:     a.edits,
		Articles:  catalog,
		Logger:    a.logger,
	}
	if a.config.SessionsEnabled() {
		validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
			SigningSecret: []byte(a.config.SessionSecret),
			Issuer:        a.config.SessionIssuer,
			CookieName:    a.config.SessionCookieName,
		})
		if err != nil {
			return nil, err
		}
		deps.Sessions = validator
	}
	return server.NewHTTPHandler(deps)
}

// Close releases the database and flushes the logger.
func (a *application) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.logger.Sync()
}
