package portal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frictionalfables/fable/cache"
	"github.com/frictionalfables/fable/client"
	"github.com/frictionalfables/fable/faults"
	"github.com/frictionalfables/fable/gate"
	"github.com/frictionalfables/fable/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOpts() cache.Options {
	return cache.Options{
		Retry: cache.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
	}
}

func allowMember() error { return nil }

func newTestStore(t *testing.T) *cache.Store {
	t.Helper()
	store := cache.NewStore(testLogger(), time.Minute)
	t.Cleanup(store.Stop)
	return store
}

// mockGateway is a hand-rolled stand-in for the remote gateway, recording
// every call so tests can assert on exactly what reached the network.
type mockGateway struct {
	mu    sync.Mutex
	calls map[string]int

	profile    *models.UserProfile
	profileErr error

	featured    []models.BookMetadata
	featuredErr error

	ratings []models.Rating
	average *models.RatingSummary

	siteAssets *models.SiteAssets

	adminState     bool
	adminLoginOK   bool
	adminLoginErr  error
	adminLogoutErr error
}

func newMockGateway() *mockGateway {
	return &mockGateway{calls: map[string]int{}}
}

func (m *mockGateway) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
}

func (m *mockGateway) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockGateway) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	m.record("GetCallerUserProfile")
	return m.profile, m.profileErr
}

func (m *mockGateway) GetUserProfile(ctx context.Context, principal string) (*models.PublicProfile, error) {
	m.record("GetUserProfile")
	return &models.PublicProfile{Principal: principal}, nil
}

func (m *mockGateway) GetCallerUserRole(ctx context.Context) (models.UserRole, error) {
	m.record("GetCallerUserRole")
	return models.RoleUser, nil
}

func (m *mockGateway) SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error {
	m.record("SaveCallerUserProfile")
	m.mu.Lock()
	p := profile
	m.profile = &p
	m.mu.Unlock()
	return nil
}

func (m *mockGateway) SetWelcomeMessageShown(ctx context.Context) error {
	m.record("SetWelcomeMessageShown")
	return nil
}

func (m *mockGateway) AssignUserRole(ctx context.Context, principal string, role models.UserRole) error {
	m.record("AssignUserRole")
	return nil
}

func (m *mockGateway) GetBooksInFeaturedOrder(ctx context.Context) ([]models.BookMetadata, error) {
	m.record("GetBooksInFeaturedOrder")
	return m.featured, m.featuredErr
}

func (m *mockGateway) GetBookAssets(ctx context.Context, bookID string) (*models.BookAsset, error) {
	m.record("GetBookAssets")
	return &models.BookAsset{}, nil
}

func (m *mockGateway) AddBook(ctx context.Context, book client.BookPayload) error {
	m.record("AddBook")
	return nil
}

func (m *mockGateway) UpdateBook(ctx context.Context, book client.BookPayload) error {
	m.record("UpdateBook")
	return nil
}

func (m *mockGateway) DeleteBook(ctx context.Context, id string) error {
	m.record("DeleteBook")
	return nil
}

func (m *mockGateway) UploadBookFile(ctx context.Context, bookID string, blob *client.Blob) error {
	m.record("UploadBookFile")
	return nil
}

func (m *mockGateway) UploadBookCover(ctx context.Context, bookID string, blob *client.Blob) error {
	m.record("UploadBookCover")
	return nil
}

func (m *mockGateway) GetSiteAssets(ctx context.Context) (*models.SiteAssets, error) {
	m.record("GetSiteAssets")
	return m.siteAssets, nil
}

func (m *mockGateway) UploadLogo(ctx context.Context, blob *client.Blob) error {
	m.record("UploadLogo")
	return nil
}

func (m *mockGateway) UploadAuthorPhoto(ctx context.Context, blob *client.Blob) error {
	m.record("UploadAuthorPhoto")
	return nil
}

func (m *mockGateway) GetBookComments(ctx context.Context, bookID string) ([]models.Comment, error) {
	m.record("GetBookComments")
	return nil, nil
}

func (m *mockGateway) GetBookRatings(ctx context.Context, bookID string) ([]models.Rating, error) {
	m.record("GetBookRatings")
	return m.ratings, nil
}

func (m *mockGateway) GetBookAverageRating(ctx context.Context, bookID string) (*models.RatingSummary, error) {
	m.record("GetBookAverageRating")
	return m.average, nil
}

func (m *mockGateway) AddComment(ctx context.Context, bookID, text string) (string, error) {
	m.record("AddComment")
	return "comment-1", nil
}

func (m *mockGateway) LikeComment(ctx context.Context, commentID string) error {
	m.record("LikeComment")
	return errors.New("You have already liked this comment")
}

func (m *mockGateway) DeleteComment(ctx context.Context, commentID string) error {
	m.record("DeleteComment")
	return nil
}

func (m *mockGateway) AddRating(ctx context.Context, bookID string, stars int) error {
	m.record("AddRating")
	return nil
}

func (m *mockGateway) GetAllThreadsWithReplies(ctx context.Context) ([]models.ForumThread, error) {
	m.record("GetAllThreadsWithReplies")
	return nil, nil
}

func (m *mockGateway) GetThread(ctx context.Context, id string) (*models.ForumThread, error) {
	m.record("GetThread")
	return &models.ForumThread{ID: id}, nil
}

func (m *mockGateway) AddThread(ctx context.Context, id, title, body string) error {
	m.record("AddThread")
	return nil
}

func (m *mockGateway) AddReply(ctx context.Context, id, threadID, body string) error {
	m.record("AddReply")
	return nil
}

func (m *mockGateway) GetAllSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	m.record("GetAllSuggestions")
	return nil, nil
}

func (m *mockGateway) AddSuggestion(ctx context.Context, id, text string) error {
	m.record("AddSuggestion")
	return nil
}

func (m *mockGateway) IsCurrentSessionAdmin(ctx context.Context) (bool, error) {
	m.record("IsCurrentSessionAdmin")
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adminState, nil
}

func (m *mockGateway) AdminLogin(ctx context.Context, name, password string) (bool, error) {
	m.record("AdminLogin")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adminLoginErr != nil {
		return false, m.adminLoginErr
	}
	if m.adminLoginOK {
		m.adminState = true
	}
	return m.adminLoginOK, nil
}

func (m *mockGateway) AdminLogout(ctx context.Context) (bool, error) {
	m.record("AdminLogout")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adminLogoutErr != nil {
		return false, m.adminLogoutErr
	}
	m.adminState = false
	return true, nil
}

func TestCallerProfileFeedsSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")

	mock := newMockGateway()
	mock.profile = &models.UserProfile{Name: "Ada", Email: "ada@example.com"}

	pc := NewProfileController(mock, store, session, testLogger(), testOpts())

	profile, err := pc.Caller().Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, gate.ProfileComplete, session.Profile())
	assert.Equal(t, gate.Member, session.Decision())
}

func TestMissingProfileGatesMemberContent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")

	mock := newMockGateway() // nil profile

	pc := NewProfileController(mock, store, session, testLogger(), testOpts())

	profile, err := pc.Caller().Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, profile)

	assert.Equal(t, gate.ProfileIncomplete, session.Profile())
	assert.Equal(t, gate.NeedsProfile, session.Decision())
}

func TestIdentityQueryDisabledWhileAnonymous(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())

	mock := newMockGateway()
	opts := testOpts()
	opts.Enabled = session.IdentityPresent

	pc := NewProfileController(mock, store, session, testLogger(), opts)

	_, err := pc.Caller().Get(ctx)
	assert.ErrorIs(t, err, faults.ErrQueryDisabled)
	assert.Equal(t, cache.StatusIdle, pc.Caller().Status())
	assert.Equal(t, 0, mock.callCount("GetCallerUserProfile"))
}

func TestWelcomeAcknowledgedExactlyOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")

	mock := newMockGateway()
	mock.profile = &models.UserProfile{Name: "Ada", Email: "ada@example.com", WelcomeMessageShown: false}

	pc := NewProfileController(mock, store, session, testLogger(), testOpts())

	_, err := pc.Caller().Get(ctx)
	require.NoError(t, err)

	require.NoError(t, pc.AcknowledgeWelcome(ctx))
	require.NoError(t, pc.AcknowledgeWelcome(ctx))
	assert.Equal(t, 1, mock.callCount("SetWelcomeMessageShown"))
}

func TestWelcomeNotOwedWhenAlreadyShown(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")

	mock := newMockGateway()
	mock.profile = &models.UserProfile{Name: "Ada", Email: "ada@example.com", WelcomeMessageShown: true}

	pc := NewProfileController(mock, store, session, testLogger(), testOpts())

	_, err := pc.Caller().Get(ctx)
	require.NoError(t, err)

	require.NoError(t, pc.AcknowledgeWelcome(ctx))
	assert.Equal(t, 0, mock.callCount("SetWelcomeMessageShown"))
}

func TestProfileSaveInvalidatesCallerProfile(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")

	mock := newMockGateway()
	mock.profile = &models.UserProfile{Name: "Ada", Email: "ada@example.com"}

	pc := NewProfileController(mock, store, session, testLogger(), testOpts())

	_, err := pc.Caller().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.callCount("GetCallerUserProfile"))

	require.NoError(t, pc.Save(ctx, models.UserProfile{Name: "Ada L.", Email: "ada@example.com"}))
	assert.Equal(t, cache.StatusStale, pc.Caller().Status())

	_, err = pc.Caller().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.callCount("GetCallerUserProfile"))
}

func TestAdminLoginGrantsAndConfirms(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")

	mock := newMockGateway()
	mock.adminLoginOK = true

	ac := NewAdminController(mock, store, session, testLogger(), testOpts())

	require.NoError(t, ac.Login(ctx, "root", "secret"))
	assert.True(t, session.AdminSession())
	assert.Equal(t, gate.Admin, session.AdminDecision())

	// Optimistic seed is visible immediately, marked for reconfirmation.
	isAdmin, ok := ac.IsAdmin().Peek()
	assert.True(t, ok)
	assert.True(t, isAdmin)
	assert.Equal(t, cache.StatusStale, ac.IsAdmin().Status())

	confirmed, err := ac.IsAdmin().Get(ctx)
	require.NoError(t, err)
	assert.True(t, confirmed)
	assert.Equal(t, 1, mock.callCount("IsCurrentSessionAdmin"))
}

func TestAdminLoginRejectionIsNotRetriedAndNotGranted(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")

	mock := newMockGateway() // adminLoginOK stays false

	ac := NewAdminController(mock, store, session, testLogger(), testOpts())

	err := ac.Login(ctx, "root", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrInvalidAdminCredentials)
	assert.Equal(t, "Invalid admin credentials", err.Error())
	assert.False(t, session.AdminSession())
	assert.Equal(t, 1, mock.callCount("AdminLogin"))

	// No optimistic seed and no invalidation on a failed mutation.
	_, ok := ac.IsAdmin().Peek()
	assert.False(t, ok)
}

func TestAdminLogoutRevokesEvenWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	session := gate.NewSession(testLogger())
	session.Login("user-1")
	session.GrantAdmin()

	mock := newMockGateway()
	mock.adminLogoutErr = errors.New("backend unreachable")

	ac := NewAdminController(mock, store, session, testLogger(), testOpts())

	err := ac.Logout(ctx)
	require.Error(t, err)
	assert.False(t, session.AdminSession())
	assert.Equal(t, gate.AdminDenied, session.AdminDecision())
}

func TestBookMutationInvalidatesCatalog(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	mock := newMockGateway()
	mock.featured = []models.BookMetadata{{ID: "b1"}}

	bc := NewBooksController(mock, store, testLogger(), testOpts(), testOpts())

	_, err := bc.Featured().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.callCount("GetBooksInFeaturedOrder"))

	require.NoError(t, bc.Add(ctx, client.BookPayload{ID: "b2", Title: "New"}))
	assert.Equal(t, cache.StatusStale, bc.Featured().Status())

	_, err = bc.Featured().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.callCount("GetBooksInFeaturedOrder"))
}

func TestUploadValidationRejectsBeforeNetwork(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mock := newMockGateway()

	bc := NewBooksController(mock, store, testLogger(), testOpts(), testOpts())
	sc := NewSiteController(mock, store, testLogger(), testOpts())

	// Wrong content type for a document.
	err := bc.UploadFile(ctx, "b1", client.NewBlob([]byte("x"), "a.png", "image/png"))
	assert.Error(t, err)

	// Oversized image.
	big := client.NewBlob(make([]byte, maxImageBytes+1), "logo.png", "image/png")
	assert.Error(t, sc.UploadLogo(ctx, big))

	// Non-image logo.
	assert.Error(t, sc.UploadLogo(ctx, client.NewBlob([]byte("x"), "logo.pdf", "application/pdf")))

	assert.Equal(t, 0, mock.callCount("UploadBookFile"))
	assert.Equal(t, 0, mock.callCount("UploadLogo"))
}

func TestUploadInvalidatesAssets(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mock := newMockGateway()

	bc := NewBooksController(mock, store, testLogger(), testOpts(), testOpts())

	_, err := bc.Assets("b1").Get(ctx)
	require.NoError(t, err)

	doc := client.NewBlob([]byte("%PDF-1.4"), "draft.pdf", "application/pdf")
	require.NoError(t, bc.UploadFile(ctx, "b1", doc))

	assert.Equal(t, cache.StatusStale, bc.Assets("b1").Status())
	assert.Equal(t, 1, mock.callCount("UploadBookFile"))
}

func TestRatingInvalidatesListAndAverageTogether(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	mock := newMockGateway()
	mock.average = &models.RatingSummary{}

	cc := NewCommunityController(mock, store, testLogger(), testOpts(), allowMember)

	_, err := cc.Ratings("b1").Get(ctx)
	require.NoError(t, err)
	_, err = cc.AverageRating("b1").Get(ctx)
	require.NoError(t, err)
	_, err = cc.Comments("b1").Get(ctx)
	require.NoError(t, err)

	require.NoError(t, cc.AddRating(ctx, "b1", 5))

	assert.Equal(t, cache.StatusStale, cc.Ratings("b1").Status())
	assert.Equal(t, cache.StatusStale, cc.AverageRating("b1").Status())
	// Comments are untouched by a rating write.
	assert.Equal(t, cache.StatusReady, cc.Comments("b1").Status())
}

func TestDuplicateLikeSurfacesWithoutRetry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mock := newMockGateway()

	opts := testOpts()
	opts.Retry = cache.DefaultRetryPolicy()
	cc := NewCommunityController(mock, store, testLogger(), opts, allowMember)

	err := cc.LikeComment(ctx, "b1", "c1")
	require.Error(t, err)
	assert.Equal(t, faults.DuplicateAction, faults.Classify(err))
	assert.Equal(t, 1, mock.callCount("LikeComment"))
}

func TestAnonymousMemberWritesRefusedLocally(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mock := newMockGateway()

	deny := func() error { return faults.ErrMemberOnly }
	cc := NewCommunityController(mock, store, testLogger(), testOpts(), deny)
	fc := NewForumController(mock, store, testLogger(), testOpts(), deny)

	_, err := cc.AddComment(ctx, "b1", "hi")
	assert.ErrorIs(t, err, faults.ErrMemberOnly)
	assert.ErrorIs(t, cc.AddRating(ctx, "b1", 5), faults.ErrMemberOnly)
	assert.ErrorIs(t, cc.LikeComment(ctx, "b1", "c1"), faults.ErrMemberOnly)

	_, err = fc.AddThread(ctx, "title", "body")
	assert.ErrorIs(t, err, faults.ErrMemberOnly)
	assert.ErrorIs(t, fc.AddReply(ctx, "t1", "body"), faults.ErrMemberOnly)

	assert.Equal(t, faults.Unauthorized, faults.Classify(faults.ErrMemberOnly))

	assert.Equal(t, 0, mock.callCount("AddComment"))
	assert.Equal(t, 0, mock.callCount("AddRating"))
	assert.Equal(t, 0, mock.callCount("LikeComment"))
	assert.Equal(t, 0, mock.callCount("AddThread"))
	assert.Equal(t, 0, mock.callCount("AddReply"))
}

func TestAnonymousSuggestionRefusedLocally(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mock := newMockGateway()

	deny := func() error { return faults.ErrLoginRequired }
	sc := NewSuggestionsController(mock, store, testLogger(), testOpts(), deny)

	_, err := sc.Add(ctx, "more dragons please")
	assert.ErrorIs(t, err, faults.ErrLoginRequired)
	assert.Equal(t, faults.Unauthorized, faults.Classify(err))
	assert.Equal(t, 0, mock.callCount("AddSuggestion"))

	sc = NewSuggestionsController(mock, store, testLogger(), testOpts(), allowMember)
	id, err := sc.Add(ctx, "more dragons please")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, mock.callCount("AddSuggestion"))
}

func TestSuggestionPermitNeedsIdentityOnly(t *testing.T) {
	p, err := New(testLogger(), &Config{
		Gateway: client.Config{BaseURL: "http://localhost:9", Logger: testLogger()},
	})
	require.NoError(t, err)
	defer p.Stop()

	assert.ErrorIs(t, p.permitIdentified(), faults.ErrLoginRequired)

	p.Login("user-1", "token-1")
	// Profile not yet resolved: member writes stay gated, suggestions open.
	assert.NoError(t, p.permitIdentified())
	assert.ErrorIs(t, p.permitMember(), faults.ErrMemberOnly)
}

func TestBookAssetsGatedWhileAnonymous(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	mock := newMockGateway()

	gated := testOpts()
	gated.Enabled = func() bool { return false }
	bc := NewBooksController(mock, store, testLogger(), testOpts(), gated)

	q := bc.Assets("b1")
	assert.Equal(t, cache.StatusIdle, q.Status())
	_, err := q.Get(ctx)
	assert.ErrorIs(t, err, faults.ErrQueryDisabled)
	assert.Equal(t, 0, mock.callCount("GetBookAssets"))

	// The public catalog is not gated.
	_, err = bc.Featured().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.callCount("GetBooksInFeaturedOrder"))
}

func TestEventPatternsMirrorMutationInvalidation(t *testing.T) {
	ev := models.ContentEvent{Resource: "rating", ID: "b1", Action: models.ContentAdded}
	patterns := patternsForEvent(ev)
	require.Len(t, patterns, 2)
	assert.True(t, patterns[0].Matches(cache.NewKey(opBookRatings, "b1")))
	assert.True(t, patterns[1].Matches(cache.NewKey(opBookAverageRating, "b1")))

	assert.Nil(t, patternsForEvent(models.ContentEvent{Resource: "unknown"}))

	deleted := patternsForEvent(models.ContentEvent{Resource: "book", ID: "b1", Action: models.ContentDeleted})
	require.Len(t, deleted, 3)
	assert.True(t, deleted[2].Matches(cache.NewKey(opBookAssets, "b1")))
}

func TestLogoutClearsCachedReads(t *testing.T) {
	p, err := New(testLogger(), &Config{
		Gateway: client.Config{BaseURL: "http://localhost:9", Logger: testLogger()},
	})
	require.NoError(t, err)
	defer p.Stop()

	p.Login("user-1", "token-1")
	assert.Equal(t, gate.Pending, p.Decision())

	// Seed something under the identity, then log out.
	p.store.Put(cache.NewKey(opCallerUserProfile), &models.UserProfile{Name: "Ada"})
	require.Equal(t, 1, p.store.Len())

	p.Logout()
	assert.Equal(t, 0, p.store.Len())
	assert.Equal(t, gate.Unauthenticated, p.Decision())
}
