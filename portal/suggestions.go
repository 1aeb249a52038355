package portal

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/models"
)

type SuggestionsBackend interface {
	GetAllSuggestions(ctx context.Context) ([]models.Suggestion, error)
	AddSuggestion(ctx context.Context, id, text string) error
}

type SuggestionsController interface {
	All() *cache.Query[[]models.Suggestion]

	// Add submits a suggestion and returns its generated id.
	Add(ctx context.Context, text string) (string, error)
}

type suggestionParams struct {
	id   string
	text string
}

type suggestionsImpl struct {
	backend SuggestionsBackend
	store   *cache.Store
	logger  *slog.Logger
	opts    cache.Options
	permit  func() error

	addMut *cache.Mutation[suggestionParams, struct{}]
}

// NewSuggestionsController checks permit before every write. Suggestions are
// open to any logged-in identity, so the portal passes an identity check
// rather than the member gate.
func NewSuggestionsController(backend SuggestionsBackend, store *cache.Store, logger *slog.Logger, opts cache.Options, permit func() error) SuggestionsController {
	sc := &suggestionsImpl{
		backend: backend,
		store:   store,
		logger:  logger.WithGroup("suggestions_controller"),
		opts:    opts,
		permit:  permit,
	}

	sc.addMut = cache.NewMutation(store, "addSuggestion", func(ctx context.Context, p suggestionParams) (struct{}, error) {
		return struct{}{}, backend.AddSuggestion(ctx, p.id, p.text)
	}).WithInvalidation(func(suggestionParams) []cache.Pattern {
		return []cache.Pattern{cache.PatternOf(opSuggestions)}
	})

	return sc
}

func (sc *suggestionsImpl) All() *cache.Query[[]models.Suggestion] {
	return cache.NewQuery(sc.store, cache.NewKey(opSuggestions), sc.backend.GetAllSuggestions, sc.opts)
}

func (sc *suggestionsImpl) Add(ctx context.Context, text string) (string, error) {
	if err := sc.permit(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	_, err := sc.addMut.Do(ctx, suggestionParams{id: id, text: text})
	if err != nil {
		return "", err
	}
	return id, nil
}
