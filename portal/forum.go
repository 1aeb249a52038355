package portal

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/models"
)

type ForumBackend interface {
	GetAllThreadsWithReplies(ctx context.Context) ([]models.ForumThread, error)
	GetThread(ctx context.Context, id string) (*models.ForumThread, error)
	AddThread(ctx context.Context, id, title, body string) error
	AddReply(ctx context.Context, id, threadID, body string) error
}

type ForumController interface {
	Threads() *cache.Query[[]models.ForumThread]
	Thread(id string) *cache.Query[*models.ForumThread]

	// AddThread creates a thread and returns its generated id.
	AddThread(ctx context.Context, title, body string) (string, error)
	AddReply(ctx context.Context, threadID, body string) error
}

type threadParams struct {
	id    string
	title string
	body  string
}

type replyParams struct {
	id       string
	threadID string
	body     string
}

type forumImpl struct {
	backend ForumBackend
	store   *cache.Store
	logger  *slog.Logger
	opts    cache.Options
	permit  func() error

	addThreadMut *cache.Mutation[threadParams, struct{}]
	addReplyMut  *cache.Mutation[replyParams, struct{}]
}

// NewForumController checks permit before every write, as the community
// controller does.
func NewForumController(backend ForumBackend, store *cache.Store, logger *slog.Logger, opts cache.Options, permit func() error) ForumController {
	fc := &forumImpl{
		backend: backend,
		store:   store,
		logger:  logger.WithGroup("forum_controller"),
		opts:    opts,
		permit:  permit,
	}

	fc.addThreadMut = cache.NewMutation(store, "addThread", func(ctx context.Context, p threadParams) (struct{}, error) {
		return struct{}{}, backend.AddThread(ctx, p.id, p.title, p.body)
	}).WithInvalidation(func(threadParams) []cache.Pattern {
		return []cache.Pattern{cache.PatternOf(opForumThreads)}
	})

	fc.addReplyMut = cache.NewMutation(store, "addReply", func(ctx context.Context, p replyParams) (struct{}, error) {
		return struct{}{}, backend.AddReply(ctx, p.id, p.threadID, p.body)
	}).WithInvalidation(func(p replyParams) []cache.Pattern {
		return []cache.Pattern{
			cache.PatternOf(opForumThreads),
			cache.PatternOf(opForumThread, p.threadID),
		}
	})

	return fc
}

func (fc *forumImpl) Threads() *cache.Query[[]models.ForumThread] {
	return cache.NewQuery(fc.store, cache.NewKey(opForumThreads), fc.backend.GetAllThreadsWithReplies, fc.opts)
}

func (fc *forumImpl) Thread(id string) *cache.Query[*models.ForumThread] {
	return cache.NewQuery(fc.store, cache.NewKey(opForumThread, id), func(ctx context.Context) (*models.ForumThread, error) {
		return fc.backend.GetThread(ctx, id)
	}, fc.opts)
}

func (fc *forumImpl) AddThread(ctx context.Context, title, body string) (string, error) {
	if err := fc.permit(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := fc.addThreadMut.Do(ctx, threadParams{id: id, title: title, body: body})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (fc *forumImpl) AddReply(ctx context.Context, threadID, body string) error {
	if err := fc.permit(); err != nil {
		return err
	}
	_, err := fc.addReplyMut.Do(ctx, replyParams{id: uuid.NewString(), threadID: threadID, body: body})
	return err
}
