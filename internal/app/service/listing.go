package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/pagination"
	"github.com/achufistov/shortypanel/internal/app/storage"
)

// Page is one window of a paginated listing.
type Page[T any] struct {
	Items []T `json:"items"`
	pagination.Paginator
}

// listPage counts rows, computes the window and fetches it. Store failures never surface:
// a failed count gives a single page and a failed fetch gives an empty one.
func listPage[T any](
	ctx context.Context,
	logger *zap.Logger,
	listing string,
	requested, limit int,
	count func(context.Context) (int, error),
	fetch func(ctx context.Context, offset, limit int) ([]T, error),
) Page[T] {
	total, err := count(ctx)
	if err != nil {
		logger.Warn("count failed", zap.String("listing", listing), zap.Error(err))
		total = 0
	}

	p := pagination.Paginate(requested, limit, total)

	items, err := fetch(ctx, p.Offset, p.Limit)
	if err != nil {
		logger.Warn("page fetch failed", zap.String("listing", listing), zap.Int("page", p.Page), zap.Error(err))
		items = nil
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Paginator: p}
}

// ListUserURLs returns a page of the principal's URLs with visit counts.
func (s *Service) ListUserURLs(ctx context.Context, p auth.Principal, page int) Page[models.URLStats] {
	owner := p.OwnerID()
	return listPage(ctx, s.logger, "account", page, pagination.UserURLsLimit,
		func(ctx context.Context) (int, error) { return s.storage.CountURLs(ctx, owner) },
		func(ctx context.Context, offset, limit int) ([]models.URLStats, error) {
			return s.storage.ListURLs(ctx, owner, offset, limit)
		})
}

// ListAllURLs returns a page of every URL with visit counts.
func (s *Service) ListAllURLs(ctx context.Context, page int) Page[models.URLStats] {
	return listPage(ctx, s.logger, "admin urls", page, pagination.AdminLimit,
		func(ctx context.Context) (int, error) { return s.storage.CountURLs(ctx, storage.AllOwners) },
		func(ctx context.Context, offset, limit int) ([]models.URLStats, error) {
			return s.storage.ListURLs(ctx, storage.AllOwners, offset, limit)
		})
}

// ListUsers returns a page of standard users. Admins are not listed.
func (s *Service) ListUsers(ctx context.Context, page int) Page[models.User] {
	return listPage(ctx, s.logger, "admin users", page, pagination.AdminLimit,
		func(ctx context.Context) (int, error) { return s.storage.CountUsers(ctx, models.RoleUser) },
		func(ctx context.Context, offset, limit int) ([]models.User, error) {
			return s.storage.ListUsers(ctx, models.RoleUser, offset, limit)
		})
}

// ListVisits returns a page of the visits recorded for a URL.
func (s *Service) ListVisits(ctx context.Context, urlID int64, page int) Page[models.Visit] {
	return listPage(ctx, s.logger, "popularity", page, pagination.VisitsLimit,
		func(ctx context.Context) (int, error) { return s.storage.CountVisits(ctx, urlID) },
		func(ctx context.Context, offset, limit int) ([]models.Visit, error) {
			return s.storage.ListVisits(ctx, urlID, offset, limit)
		})
}
