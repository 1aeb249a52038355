package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/models"
)

type NewComingsBackend interface {
	GetAllNewComings(ctx context.Context) ([]models.NewComing, error)
	GetNewComing(ctx context.Context, id string) (*models.NewComing, error)
	AddNewComing(ctx context.Context, entry client.NewComingPayload) error
	UpdateNewComing(ctx context.Context, entry client.NewComingPayload) error
	DeleteNewComing(ctx context.Context, id string) error
}

type NewComingsController interface {
	All() *cache.Query[[]models.NewComing]
	Entry(id string) *cache.Query[*models.NewComing]

	Add(ctx context.Context, entry client.NewComingPayload) error
	Update(ctx context.Context, entry client.NewComingPayload) error
	Delete(ctx context.Context, id string) error
}

type newComingsImpl struct {
	backend NewComingsBackend
	store   *cache.Store
	logger  *slog.Logger
	opts    cache.Options

	addMut    *cache.Mutation[client.NewComingPayload, struct{}]
	updateMut *cache.Mutation[client.NewComingPayload, struct{}]
	deleteMut *cache.Mutation[string, struct{}]
}

func NewNewComingsController(backend NewComingsBackend, store *cache.Store, logger *slog.Logger, opts cache.Options) NewComingsController {
	nc := &newComingsImpl{
		backend: backend,
		store:   store,
		logger:  logger.WithGroup("newcomings_controller"),
		opts:    opts,
	}

	patterns := func(id string) []cache.Pattern {
		return []cache.Pattern{
			cache.PatternOf(opNewComings),
			cache.PatternOf(opNewComing, id),
		}
	}

	nc.addMut = cache.NewMutation(store, "addNewComing", func(ctx context.Context, entry client.NewComingPayload) (struct{}, error) {
		return struct{}{}, backend.AddNewComing(ctx, entry)
	}).WithInvalidation(func(entry client.NewComingPayload) []cache.Pattern {
		return patterns(entry.ID)
	})

	nc.updateMut = cache.NewMutation(store, "updateNewComing", func(ctx context.Context, entry client.NewComingPayload) (struct{}, error) {
		return struct{}{}, backend.UpdateNewComing(ctx, entry)
	}).WithInvalidation(func(entry client.NewComingPayload) []cache.Pattern {
		return patterns(entry.ID)
	})

	nc.deleteMut = cache.NewMutation(store, "deleteNewComing", func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, backend.DeleteNewComing(ctx, id)
	}).WithInvalidation(patterns)

	return nc
}

func (nc *newComingsImpl) All() *cache.Query[[]models.NewComing] {
	return cache.NewQuery(nc.store, cache.NewKey(opNewComings), nc.backend.GetAllNewComings, nc.opts)
}

func (nc *newComingsImpl) Entry(id string) *cache.Query[*models.NewComing] {
	return cache.NewQuery(nc.store, cache.NewKey(opNewComing, id), func(ctx context.Context) (*models.NewComing, error) {
		return nc.backend.GetNewComing(ctx, id)
	}, nc.opts)
}

func (nc *newComingsImpl) Add(ctx context.Context, entry client.NewComingPayload) error {
	_, err := nc.addMut.Do(ctx, entry)
	return err
}

func (nc *newComingsImpl) Update(ctx context.Context, entry client.NewComingPayload) error {
	_, err := nc.updateMut.Do(ctx, entry)
	return err
}

func (nc *newComingsImpl) Delete(ctx context.Context, id string) error {
	_, err := nc.deleteMut.Do(ctx, id)
	return err
}
