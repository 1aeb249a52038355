package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/models"
)

type SiteBackend interface {
	GetSiteAssets(ctx context.Context) (*models.SiteAssets, error)
	UploadLogo(ctx context.Context, blob *client.Blob) error
	UploadAuthorPhoto(ctx context.Context, blob *client.Blob) error
}

type SiteController interface {
	Assets() *cache.Query[*models.SiteAssets]

	UploadLogo(ctx context.Context, blob *client.Blob) error
	UploadAuthorPhoto(ctx context.Context, blob *client.Blob) error
}

type siteImpl struct {
	backend SiteBackend
	store   *cache.Store
	logger  *slog.Logger
	opts    cache.Options
}

func NewSiteController(backend SiteBackend, store *cache.Store, logger *slog.Logger, opts cache.Options) SiteController {
	return &siteImpl{
		backend: backend,
		store:   store,
		logger:  logger.WithGroup("site_controller"),
		opts:    opts,
	}
}

func (sc *siteImpl) Assets() *cache.Query[*models.SiteAssets] {
	return cache.NewQuery(sc.store, cache.NewKey(opSiteAssets), sc.backend.GetSiteAssets, sc.opts)
}

func (sc *siteImpl) UploadLogo(ctx context.Context, blob *client.Blob) error {
	if err := validateImage(blob); err != nil {
		return err
	}
	if err := sc.backend.UploadLogo(ctx, blob); err != nil {
		return err
	}
	sc.store.Invalidate(cache.PatternOf(opSiteAssets))
	return nil
}

func (sc *siteImpl) UploadAuthorPhoto(ctx context.Context, blob *client.Blob) error {
	if err := validateImage(blob); err != nil {
		return err
	}
	if err := sc.backend.UploadAuthorPhoto(ctx, blob); err != nil {
		return err
	}
	sc.store.Invalidate(cache.PatternOf(opSiteAssets))
	return nil
}
