// Package service provides business logic for the URL shortening service.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/config"
	"github.com/achufistov/shortypanel/internal/app/metrics"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/shortcode"
	"github.com/achufistov/shortypanel/internal/app/storage"
)

// Service provides business logic for URL shortening operations.
type Service struct {
	storage   storage.Storage
	config    *config.Config
	tokens    *auth.Tokens
	allocator *shortcode.Allocator
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithGenerator replaces the random short code generator.
func WithGenerator(g shortcode.Generator) Option {
	return func(s *Service) {
		s.allocator = shortcode.NewAllocator(shortcode.WithGenerator(g), shortcode.WithConflictHook(s.conflict))
	}
}

// WithMetrics sets the collectors updated by the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now for visit dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new service instance.
func NewService(storage storage.Storage, config *config.Config, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		storage: storage,
		config:  config,
		tokens:  auth.NewTokens(config.SecretKey, config.TokenTTL.Duration),
		metrics: metrics.NewNop(),
		logger:  logger,
		now:     time.Now,
	}
	s.allocator = shortcode.NewAllocator(shortcode.WithConflictHook(s.conflict))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) conflict() {
	s.metrics.Conflicts.Inc()
}

// Tokens returns the session token codec.
func (s *Service) Tokens() *auth.Tokens {
	return s.tokens
}

// ShortURL returns the public link of a short code.
func (s *Service) ShortURL(code string) string {
	return fmt.Sprintf("%s/url/%s", strings.TrimRight(s.config.BaseURL, "/"), code)
}

// Bootstrap seeds the administrator account with id 1 unless it already exists.
// The same account owns URLs shortened by anonymous visitors.
func (s *Service) Bootstrap(ctx context.Context) error {
	if _, err := s.storage.GetUserByID(ctx, models.SystemUserID); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := auth.HashPassword(s.config.AdminPassword)
	if err != nil {
		return err
	}
	admin := models.User{ID: models.SystemUserID, Login: s.config.AdminLogin, Password: hash, Role: models.RoleAdmin}
	if err := s.storage.EnsureUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	s.logger.Info("admin account created", zap.String("login", admin.Login))
	return nil
}

// ShortenURLRequest represents a request to shorten a URL.
type ShortenURLRequest struct {
	Principal auth.Principal
	Input     models.ShortenInput
}

// ShortenURLResponse represents a response with shortened URL.
type ShortenURLResponse struct {
	URL      models.URL
	ShortURL string
}

// ShortenURL validates and normalizes the input, then stores it under a freshly allocated code.
// Anonymous callers record the URL under the system user.
func (s *Service) ShortenURL(ctx context.Context, req ShortenURLRequest) (*ShortenURLResponse, error) {
	req.Input.URL = strings.TrimSpace(req.Input.URL)
	if err := models.Validate(req.Input); err != nil {
		return nil, err
	}

	url := models.URL{
		OriginalURL: models.NormalizeURL(req.Input.URL),
		UserID:      req.Principal.OwnerID(),
	}

	var created models.URL
	_, err := s.allocator.Allocate(ctx, func(ctx context.Context, code string) error {
		url.ShortURL = code
		var err error
		created, err = s.storage.CreateURL(ctx, url)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save URL mapping: %w", err)
	}

	s.metrics.Shortened.Inc()
	s.logger.Debug("url shortened",
		zap.String("short_url", created.ShortURL),
		zap.Int64("user_id", created.UserID))

	return &ShortenURLResponse{URL: created, ShortURL: s.ShortURL(created.ShortURL)}, nil
}

// ResolveURL looks up a short code, records a visit from visitorIP and returns the long URL.
// Unknown codes return models.ErrNotFound and record nothing.
func (s *Service) ResolveURL(ctx context.Context, code, visitorIP string) (string, error) {
	url, err := s.storage.GetURLByShort(ctx, code)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.metrics.Redirects.WithLabelValues("miss").Inc()
			return "", models.ErrNotFound
		}
		s.metrics.Redirects.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to resolve %q: %w", code, err)
	}

	visit := models.Visit{VisitorIP: visitorIP, URLID: url.ID, VisitDate: s.now()}
	if err := s.storage.AddVisit(ctx, visit); err != nil {
		s.metrics.Redirects.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to record visit: %w", err)
	}

	s.metrics.Redirects.WithLabelValues("hit").Inc()
	return url.OriginalURL, nil
}

// GetURL returns a URL by short code without recording a visit.
func (s *Service) GetURL(ctx context.Context, code string) (models.URL, error) {
	return s.storage.GetURLByShort(ctx, code)
}

// URLByID returns a URL by id.
func (s *Service) URLByID(ctx context.Context, id int64) (models.URL, error) {
	return s.storage.GetURLByID(ctx, id)
}

// URLForDelete returns the URL with the given id if p may delete it.
func (s *Service) URLForDelete(ctx context.Context, p auth.Principal, id int64) (models.URL, error) {
	url, err := s.storage.GetURLByID(ctx, id)
	if err != nil {
		return models.URL{}, err
	}
	if err := p.CanDeleteURL(url); err != nil {
		return models.URL{}, err
	}
	return url, nil
}

// DeleteURL removes a URL and its visits. Only the owner or an admin may delete it.
func (s *Service) DeleteURL(ctx context.Context, p auth.Principal, id int64) error {
	if _, err := s.URLForDelete(ctx, p, id); err != nil {
		return err
	}
	if err := s.storage.DeleteURL(ctx, id); err != nil {
		return fmt.Errorf("failed to delete url %d: %w", id, err)
	}
	s.logger.Info("url deleted", zap.Int64("url_id", id), zap.Int64("by", p.UserID))
	return nil
}

// Ping performs a health check on the storage.
func (s *Service) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// Stats returns service-wide totals.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	st, err := s.storage.Stats(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}
	return st, nil
}
