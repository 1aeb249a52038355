package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/models"
)

type NotesBackend interface {
	GetAllCharacterNotes(ctx context.Context) ([]models.CharacterNote, error)
	GetCharacterNote(ctx context.Context, id string) (*models.CharacterNote, error)
	AddCharacterNote(ctx context.Context, note client.CharacterNotePayload) error
	UpdateCharacterNote(ctx context.Context, note client.CharacterNotePayload) error
	DeleteCharacterNote(ctx context.Context, id string) error
}

type NotesController interface {
	All() *cache.Query[[]models.CharacterNote]
	Note(id string) *cache.Query[*models.CharacterNote]

	Add(ctx context.Context, note client.CharacterNotePayload) error
	Update(ctx context.Context, note client.CharacterNotePayload) error
	Delete(ctx context.Context, id string) error
}

type notesImpl struct {
	backend NotesBackend
	store   *cache.Store
	logger  *slog.Logger
	opts    cache.Options

	addMut    *cache.Mutation[client.CharacterNotePayload, struct{}]
	updateMut *cache.Mutation[client.CharacterNotePayload, struct{}]
	deleteMut *cache.Mutation[string, struct{}]
}

func NewNotesController(backend NotesBackend, store *cache.Store, logger *slog.Logger, opts cache.Options) NotesController {
	nc := &notesImpl{
		backend: backend,
		store:   store,
		logger:  logger.WithGroup("notes_controller"),
		opts:    opts,
	}

	patterns := func(id string) []cache.Pattern {
		return []cache.Pattern{
			cache.PatternOf(opCharacterNotes),
			cache.PatternOf(opCharacterNote, id),
		}
	}

	nc.addMut = cache.NewMutation(store, "addCharacterNote", func(ctx context.Context, note client.CharacterNotePayload) (struct{}, error) {
		return struct{}{}, backend.AddCharacterNote(ctx, note)
	}).WithInvalidation(func(note client.CharacterNotePayload) []cache.Pattern {
		return patterns(note.ID)
	})

	nc.updateMut = cache.NewMutation(store, "updateCharacterNote", func(ctx context.Context, note client.CharacterNotePayload) (struct{}, error) {
		return struct{}{}, backend.UpdateCharacterNote(ctx, note)
	}).WithInvalidation(func(note client.CharacterNotePayload) []cache.Pattern {
		return patterns(note.ID)
	})

	nc.deleteMut = cache.NewMutation(store, "deleteCharacterNote", func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, backend.DeleteCharacterNote(ctx, id)
	}).WithInvalidation(patterns)

	return nc
}

func (nc *notesImpl) All() *cache.Query[[]models.CharacterNote] {
	return cache.NewQuery(nc.store, cache.NewKey(opCharacterNotes), nc.backend.GetAllCharacterNotes, nc.opts)
}

func (nc *notesImpl) Note(id string) *cache.Query[*models.CharacterNote] {
	return cache.NewQuery(nc.store, cache.NewKey(opCharacterNote, id), func(ctx context.Context) (*models.CharacterNote, error) {
		return nc.backend.GetCharacterNote(ctx, id)
	}, nc.opts)
}

func (nc *notesImpl) Add(ctx context.Context, note client.CharacterNotePayload) error {
	_, err := nc.addMut.Do(ctx, note)
	return err
}

func (nc *notesImpl) Update(ctx context.Context, note client.CharacterNotePayload) error {
	_, err := nc.updateMut.Do(ctx, note)
	return err
}

func (nc *notesImpl) Delete(ctx context.Context, id string) error {
	_, err := nc.deleteMut.Do(ctx, id)
	return err
}
