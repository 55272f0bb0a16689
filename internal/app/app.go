// Package app provides application-level wiring and dependency injection
// for the Curtain backend.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"curtainbe/internal/api"
	"curtainbe/internal/channel"
	"curtainbe/internal/config"
	"curtainbe/internal/db/repository"
	"curtainbe/internal/middleware"
	"curtainbe/internal/objectstore"
	"curtainbe/internal/service/compare"
	"curtainbe/internal/service/session"
	"curtainbe/internal/uniprot"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the logger.
type Deps struct {
	Cfg     *config.Config
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// App holds the fully-wired application.
type App struct {
	Handler  *api.Handler
	Auth     *middleware.Authenticator
	Hub      *channel.Hub
	Sessions *session.Service
	Compare  *compare.Service
	Jobs     *repository.CompareJobRepo
	Store    objectstore.Store
	// MediaDir is non-empty when session payloads are served from the local
	// filesystem rather than S3.
	MediaDir string
}

// New wires all repositories and services from the provided deps.
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger

	// Repositories. Writes go through the single-connection write pool;
	// the comparison worker's session reads use the read pool.
	sessionRepo := repository.NewSessionRepo(deps.WriteDB)
	sessionReadRepo := repository.NewSessionRepo(deps.ReadDB)
	jobRepo := repository.NewCompareJobRepo(deps.WriteDB)
	userRepo := repository.NewUserRepo(deps.WriteDB)
	keyRepo := repository.NewAPIKeyRepo(deps.WriteDB)

	// Object storage for session payloads.
	var (
		store    objectstore.Store
		mediaDir string
		err      error
	)
	if cfg.HasS3Config() {
		store, err = objectstore.NewS3Store(objectstore.S3Config{
			Endpoint: *cfg.Endpoint,
			Region:   *cfg.Region,
			KeyID:    *cfg.S3KeyID,
			Secret:   *cfg.S3Secret,
			Bucket:   *cfg.Bucket,
		})
		if err != nil {
			return nil, fmt.Errorf("configure S3 storage: %w", err)
		}
		logger.Info("session storage: s3", "bucket", *cfg.Bucket)
	} else {
		local, err := objectstore.NewLocalStore(cfg.MediaDir, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure local storage: %w", err)
		}
		store = local
		mediaDir = local.MediaDir()
		logger.Info("session storage: local", "media_dir", mediaDir)
	}

	// Authentication. OIDC (ORCID) when configured, HS256 otherwise; with
	// neither, every request is anonymous and only public sessions are
	// reachable.
	var validator middleware.JWTValidator
	switch {
	case cfg.Auth.JWKSURL != "":
		validator, err = middleware.NewOIDCValidatorFromJWKS(ctx,
			cfg.Auth.JWKSURL, cfg.Auth.IssuerURL, cfg.Auth.Audience, cfg.Auth.AllowedIssuers)
		if err != nil {
			return nil, fmt.Errorf("configure JWKS validator: %w", err)
		}
	case cfg.Auth.IssuerURL != "":
		validator, err = middleware.NewOIDCValidator(ctx,
			cfg.Auth.IssuerURL, cfg.Auth.Audience, cfg.Auth.AllowedIssuers)
		if err != nil {
			return nil, fmt.Errorf("configure OIDC validator: %w", err)
		}
	case cfg.Auth.JWTSecret != "":
		validator, err = middleware.NewHS256Validator(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("configure HS256 validator: %w", err)
		}
	}
	auth := middleware.NewAuthenticator(validator, userRepo, keyRepo, logger)

	// Progress channel hub and services.
	hub := channel.NewHub(logger.With("component", "channel_hub"))
	fetcher := session.NewFetcher(store, nil, logger)
	annotator := uniprot.NewClient(logger.With("component", "uniprot"),
		uniprot.WithBaseURL(cfg.UniProtBaseURL),
		uniprot.WithBatchSize(cfg.UniProtBatchSize))

	sessionSvc := session.NewService(sessionRepo, store, logger)
	compareSvc := compare.NewService(sessionReadRepo, jobRepo, fetcher, annotator, hub, logger)

	handler := api.NewHandler(compareSvc, sessionSvc, keyRepo, channel.NewHandler(hub), logger)

	return &App{
		Handler:  handler,
		Auth:     auth,
		Hub:      hub,
		Sessions: sessionSvc,
		Compare:  compareSvc,
		Jobs:     jobRepo,
		Store:    store,
		MediaDir: mediaDir,
	}, nil
}
