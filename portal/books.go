package portal

import (
	"context"
	"log/slog"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/models"
)

// BooksBackend is the slice of the gateway the books controller needs.
type BooksBackend interface {
	GetBooksInFeaturedOrder(ctx context.Context) ([]models.BookMetadata, error)
	GetBookAssets(ctx context.Context, bookID string) (*models.BookAsset, error)
	AddBook(ctx context.Context, book client.BookPayload) error
	UpdateBook(ctx context.Context, book client.BookPayload) error
	DeleteBook(ctx context.Context, id string) error
	UploadBookFile(ctx context.Context, bookID string, blob *client.Blob) error
	UploadBookCover(ctx context.Context, bookID string, blob *client.Blob) error
}

type BooksController interface {
	Featured() *cache.Query[[]models.BookMetadata]
	Assets(bookID string) *cache.Query[*models.BookAsset]

	Add(ctx context.Context, book client.BookPayload) error
	Update(ctx context.Context, book client.BookPayload) error
	Delete(ctx context.Context, id string) error

	UploadFile(ctx context.Context, bookID string, blob *client.Blob) error
	UploadCover(ctx context.Context, bookID string, blob *client.Blob) error
}

type booksImpl struct {
	backend    BooksBackend
	store      *cache.Store
	logger     *slog.Logger
	opts       cache.Options
	memberOpts cache.Options

	addMut    *cache.Mutation[client.BookPayload, struct{}]
	updateMut *cache.Mutation[client.BookPayload, struct{}]
	deleteMut *cache.Mutation[string, struct{}]
}

// NewBooksController takes two option sets: opts for the public catalog and
// memberOpts for the assets read, which members alone may fetch.
func NewBooksController(backend BooksBackend, store *cache.Store, logger *slog.Logger, opts, memberOpts cache.Options) BooksController {
	bc := &booksImpl{
		backend:    backend,
		store:      store,
		logger:     logger.WithGroup("books_controller"),
		opts:       opts,
		memberOpts: memberOpts,
	}

	catalogPatterns := func(id string) []cache.Pattern {
		return []cache.Pattern{
			cache.PatternOf(opFeaturedBooks),
			cache.PatternOf(opBook, id),
		}
	}

	bc.addMut = cache.NewMutation(store, "addBook", func(ctx context.Context, book client.BookPayload) (struct{}, error) {
		return struct{}{}, backend.AddBook(ctx, book)
	}).WithInvalidation(func(book client.BookPayload) []cache.Pattern {
		return catalogPatterns(book.ID)
	})

	bc.updateMut = cache.NewMutation(store, "updateBook", func(ctx context.Context, book client.BookPayload) (struct{}, error) {
		return struct{}{}, backend.UpdateBook(ctx, book)
	}).WithInvalidation(func(book client.BookPayload) []cache.Pattern {
		return catalogPatterns(book.ID)
	})

	bc.deleteMut = cache.NewMutation(store, "deleteBook", func(ctx context.Context, id string) (struct{}, error) {
		return struct{}{}, backend.DeleteBook(ctx, id)
	}).WithInvalidation(func(id string) []cache.Pattern {
		return append(catalogPatterns(id), cache.PatternOf(opBookAssets, id))
	})

	return bc
}

func (bc *booksImpl) Featured() *cache.Query[[]models.BookMetadata] {
	return cache.NewQuery(bc.store, cache.NewKey(opFeaturedBooks), bc.backend.GetBooksInFeaturedOrder, bc.opts)
}

func (bc *booksImpl) Assets(bookID string) *cache.Query[*models.BookAsset] {
	return cache.NewQuery(bc.store, cache.NewKey(opBookAssets, bookID), func(ctx context.Context) (*models.BookAsset, error) {
		return bc.backend.GetBookAssets(ctx, bookID)
	}, bc.memberOpts)
}

func (bc *booksImpl) Add(ctx context.Context, book client.BookPayload) error {
	_, err := bc.addMut.Do(ctx, book)
	return err
}

func (bc *booksImpl) Update(ctx context.Context, book client.BookPayload) error {
	_, err := bc.updateMut.Do(ctx, book)
	return err
}

func (bc *booksImpl) Delete(ctx context.Context, id string) error {
	_, err := bc.deleteMut.Do(ctx, id)
	return err
}

func (bc *booksImpl) UploadFile(ctx context.Context, bookID string, blob *client.Blob) error {
	if err := validateDocument(blob); err != nil {
		return err
	}
	if err := bc.backend.UploadBookFile(ctx, bookID, blob); err != nil {
		return err
	}
	bc.store.Invalidate(cache.PatternOf(opBookAssets, bookID))
	return nil
}

func (bc *booksImpl) UploadCover(ctx context.Context, bookID string, blob *client.Blob) error {
	if err := validateImage(blob); err != nil {
		return err
	}
	if err := bc.backend.UploadBookCover(ctx, bookID, blob); err != nil {
		return err
	}
	bc.store.Invalidate(cache.PatternOf(opBookAssets, bookID))
	return nil
}
