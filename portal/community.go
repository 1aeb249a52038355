package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/models"
)

type CommunityBackend interface {
	GetBookComments(ctx context.Context, bookID string) ([]models.Comment, error)
	GetBookRatings(ctx context.Context, bookID string) ([]models.Rating, error)
	GetBookAverageRating(ctx context.Context, bookID string) (*models.RatingSummary, error)
	AddComment(ctx context.Context, bookID, text string) (string, error)
	LikeComment(ctx context.Context, commentID string) error
	DeleteComment(ctx context.Context, commentID string) error
	AddRating(ctx context.Context, bookID string, stars int) error
}

// CommunityController covers the reader-facing interactions on a book:
// comments and ratings. Rating writes obsolete both the raw ratings list and
// the derived average, in one declared set.
type CommunityController interface {
	Comments(bookID string) *cache.Query[[]models.Comment]
	Ratings(bookID string) *cache.Query[[]models.Rating]
	AverageRating(bookID string) *cache.Query[*models.RatingSummary]

	AddComment(ctx context.Context, bookID, text string) (string, error)
	LikeComment(ctx context.Context, bookID, commentID string) error
	DeleteComment(ctx context.Context, bookID, commentID string) error
	AddRating(ctx context.Context, bookID string, stars int) error
}

type commentParams struct {
	bookID string
	text   string
}

type commentRefParams struct {
	bookID    string
	commentID string
}

type ratingParams struct {
	bookID string
	stars  int
}

type communityImpl struct {
	backend CommunityBackend
	store   *cache.Store
	logger  *slog.Logger
	opts    cache.Options
	permit  func() error

	addCommentMut    *cache.Mutation[commentParams, string]
	likeCommentMut   *cache.Mutation[commentRefParams, struct{}]
	deleteCommentMut *cache.Mutation[commentRefParams, struct{}]
	addRatingMut     *cache.Mutation[ratingParams, struct{}]
}

// NewCommunityController checks permit before every write; an anonymous
// session is refused locally without touching the gateway.
func NewCommunityController(backend CommunityBackend, store *cache.Store, logger *slog.Logger, opts cache.Options, permit func() error) CommunityController {
	cc := &communityImpl{
		backend: backend,
		store:   store,
		logger:  logger.WithGroup("community_controller"),
		opts:    opts,
		permit:  permit,
	}

	commentPatterns := func(bookID string) []cache.Pattern {
		return []cache.Pattern{cache.PatternOf(opBookComments, bookID)}
	}

	cc.addCommentMut = cache.NewMutation(store, "addComment", func(ctx context.Context, p commentParams) (string, error) {
		return backend.AddComment(ctx, p.bookID, p.text)
	}).WithInvalidation(func(p commentParams) []cache.Pattern {
		return commentPatterns(p.bookID)
	})

	cc.likeCommentMut = cache.NewMutation(store, "likeComment", func(ctx context.Context, p commentRefParams) (struct{}, error) {
		return struct{}{}, backend.LikeComment(ctx, p.commentID)
	}).WithInvalidation(func(p commentRefParams) []cache.Pattern {
		return commentPatterns(p.bookID)
	})

	cc.deleteCommentMut = cache.NewMutation(store, "deleteComment", func(ctx context.Context, p commentRefParams) (struct{}, error) {
		return struct{}{}, backend.DeleteComment(ctx, p.commentID)
	}).WithInvalidation(func(p commentRefParams) []cache.Pattern {
		return commentPatterns(p.bookID)
	})

	// The average is derived from the ratings; the two must never go stale
	// independently.
	cc.addRatingMut = cache.NewMutation(store, "addRating", func(ctx context.Context, p ratingParams) (struct{}, error) {
		return struct{}{}, backend.AddRating(ctx, p.bookID, p.stars)
	}).WithInvalidation(func(p ratingParams) []cache.Pattern {
		return []cache.Pattern{
			cache.PatternOf(opBookRatings, p.bookID),
			cache.PatternOf(opBookAverageRating, p.bookID),
		}
	})

	return cc
}

func (cc *communityImpl) Comments(bookID string) *cache.Query[[]models.Comment] {
	return cache.NewQuery(cc.store, cache.NewKey(opBookComments, bookID), func(ctx context.Context) ([]models.Comment, error) {
		return cc.backend.GetBookComments(ctx, bookID)
	}, cc.opts)
}

func (cc *communityImpl) Ratings(bookID string) *cache.Query[[]models.Rating] {
	return cache.NewQuery(cc.store, cache.NewKey(opBookRatings, bookID), func(ctx context.Context) ([]models.Rating, error) {
		return cc.backend.GetBookRatings(ctx, bookID)
	}, cc.opts)
}

func (cc *communityImpl) AverageRating(bookID string) *cache.Query[*models.RatingSummary] {
	return cache.NewQuery(cc.store, cache.NewKey(opBookAverageRating, bookID), func(ctx context.Context) (*models.RatingSummary, error) {
		return cc.backend.GetBookAverageRating(ctx, bookID)
	}, cc.opts)
}

func (cc *communityImpl) AddComment(ctx context.Context, bookID, text string) (string, error) {
	if err := cc.permit(); err != nil {
		return "", err
	}
	return cc.addCommentMut.Do(ctx, commentParams{bookID: bookID, text: text})
}

func (cc *communityImpl) LikeComment(ctx context.Context, bookID, commentID string) error {
	if err := cc.permit(); err != nil {
		return err
	}
	_, err := cc.likeCommentMut.Do(ctx, commentRefParams{bookID: bookID, commentID: commentID})
	return err
}

func (cc *communityImpl) DeleteComment(ctx context.Context, bookID, commentID string) error {
	if err := cc.permit(); err != nil {
		return err
	}
	_, err := cc.deleteCommentMut.Do(ctx, commentRefParams{bookID: bookID, commentID: commentID})
	return err
}

func (cc *communityImpl) AddRating(ctx context.Context, bookID string, stars int) error {
	if err := cc.permit(); err != nil {
		return err
	}
	_, err := cc.addRatingMut.Do(ctx, ratingParams{bookID: bookID, stars: stars})
	return err
}
