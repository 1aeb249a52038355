package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/models"
)

type BlogBackend interface {
	GetAllBlogPosts(ctx context.Context) ([]models.BlogPost, error)
	GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error)
	AddBlogPost(ctx context.Context, post client.BlogPostPayload) error
	UpdateBlogPost(ctx context.Context, post client.BlogPostPayload) error
	DeleteBlogPost(ctx context.Context, id string) error
}

type BlogController interface {
	All() *cache.Query[[]models.BlogPost]
	Post(id string) *cache.Query[*models.BlogPost]

	Add(ctx context.Context, post client.BlogPostPayload) error
	Update(ctx context.Context, post client.BlogPostPayload) error
	Delete(ctx context.Context, id string) error
}

type blogImpl struct {
	backend BlogBackend
	store   *cache.Store
	logger  *slog.Logger
	opts    cache.Options

	addMut    *cache.Mutation[client.BlogPostPayload, struct{}]
	updateMut *cache.Mutation[client.BlogPostPayload, struct{}]
	deleteMut *cache.Mutation[string, struct{}]
}

func NewBlogController(backend BlogBackend, store *cache.Store, logger *slog.Logger, opts cache.Options) BlogController {
	bc := &blogImpl{
		backend: backend,
		store:   store,
		logger:  logger.WithGroup("blog_controller"),
		opts:    opts,
	}

	patterns := func(id string) []cache.Pattern {
		return []cache.Pattern{
			cache.PatternOf(opBlogPosts),
			cache.PatternOf(opBlogPost, id),
		}
	}

	bc.addMut = cache.NewMutation(store, "addBlogPost", func(ctx context.Context, post client.BlogPostPayload) (struct{}, error) {
		return struct{}{}, backend.AddBlogPost(ctx, post)
	}).WithInvalidation(func(post client.BlogPostPayload) []cache.Pattern {
		return patterns(post.ID)
	})

	bc.updateMut = cache.NewMutation(store, "updateBlogPost", func(ctx context.Context, post client.BlogPostPayload) (struct{}, error) {
		return struct{}{}, backend.UpdateBlogPost(ctx, post)
	}).WithInvalidation(func(post client.BlogPostPayload) []cache.Pattern {
		return patterns(post.ID)
	})

	bc.deleteMut = cache.NewMutation(store, "deleteBlogPost", func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, backend.DeleteBlogPost(ctx, id)
	}).WithInvalidation(patterns)

	return bc
}

func (bc *blogImpl) All() *cache.Query[[]models.BlogPost] {
	return cache.NewQuery(bc.store, cache.NewKey(opBlogPosts), bc.backend.GetAllBlogPosts, bc.opts)
}

func (bc *blogImpl) Post(id string) *cache.Query[*models.BlogPost] {
	return cache.NewQuery(bc.store, cache.NewKey(opBlogPost, id), func(ctx context.Context) (*models.BlogPost, error) {
		return bc.backend.GetBlogPost(ctx, id)
	}, bc.opts)
}

func (bc *blogImpl) Add(ctx context.Context, post client.BlogPostPayload) error {
	_, err := bc.addMut.Do(ctx, post)
	return err
}

func (bc *blogImpl) Update(ctx context.Context, post client.BlogPostPayload) error {
	_, err := bc.updateMut.Do(ctx, post)
	return err
}

func (bc *blogImpl) Delete(ctx context.Context, id string) error {
	_, err := bc.deleteMut.Do(ctx, id)
	return err
}
