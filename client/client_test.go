package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frictionalfables/fable/faults"
	"github.com/frictionalfables/fable/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(&Config{
		BaseURL:      srv.URL,
		SessionToken: "session-token",
		Logger:       testLogger(),
	})
	require.NoError(t, err)
	return c, srv
}

func connectTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/", handler)
	c, _ := newTestClient(t, mux)
	require.NoError(t, c.Connect(context.Background()))
	return c
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	_, err := NewClient(&Config{Logger: testLogger()})
	assert.Error(t, err)

	_, err = NewClient(&Config{BaseURL: "ftp://example.com", Logger: testLogger()})
	assert.Error(t, err)
}

func TestCallsBeforeConnectFailFast(t *testing.T) {
	called := false
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := c.GetSiteAssets(context.Background())
	assert.ErrorIs(t, err, faults.ErrGatewayUnavailable)
	assert.False(t, called, "gateway must not be contacted before Connect")

	err = c.UploadLogo(context.Background(), NewBlob([]byte("png"), "logo.png", "image/png"))
	assert.ErrorIs(t, err, faults.ErrGatewayUnavailable)
	assert.False(t, called)
}

func TestConnectFlipsReady(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.False(t, c.Ready())
	require.NoError(t, c.Connect(context.Background()))
	assert.True(t, c.Ready())
}

func TestReadDecodesDataEnvelope(t *testing.T) {
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/profile/me", r.URL.Path)
		assert.Equal(t, "session-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"data": models.UserProfile{Name: "Ada", Email: "ada@example.com"},
		})
	})

	profile, err := c.GetCallerUserProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "ada@example.com", profile.Email)
}

func TestServerErrorMessageSurfacedVerbatim(t *testing.T) {
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(ErrorResponse{
			ErrorType: "authorization",
			Message:   "Unauthorized: admin access required",
		})
	})

	err := c.DeleteBook(context.Background(), "b1")
	require.Error(t, err)
	assert.Equal(t, "Unauthorized: admin access required", err.Error())
	assert.Equal(t, faults.Unauthorized, faults.Classify(err))
}

func TestServerErrorWithoutEnvelope(t *testing.T) {
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	err := c.AddThread(context.Background(), "t1", "title", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server returned status 500")
}

func TestEmptyArgumentsRejectedLocally(t *testing.T) {
	called := false
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.GetBookAssets(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, c.DeleteBook(context.Background(), ""))
	assert.Error(t, c.AddRating(context.Background(), "b1", 6))
	assert.Error(t, c.LikeComment(context.Background(), ""))
	assert.False(t, called)
}

func TestAdminLoginResult(t *testing.T) {
	granted := false
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/admin/login", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "root", payload["name"])
		json.NewEncoder(w).Encode(map[string]bool{"data": granted})
	})

	ok, err := c.AdminLogin(context.Background(), "root", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	granted = true
	ok, err = c.AdminLogin(context.Background(), "root", "right")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionTokenLifecycle(t *testing.T) {
	var seen []string
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"data": []models.BookMetadata{}})
	})

	_, err := c.GetBooksInFeaturedOrder(context.Background())
	require.NoError(t, err)

	c.SetSession("fresh-token")
	_, err = c.GetBooksInFeaturedOrder(context.Background())
	require.NoError(t, err)

	c.ClearSession()
	_, err = c.GetBooksInFeaturedOrder(context.Background())
	require.NoError(t, err)

	require.Len(t, seen, 3)
	assert.Equal(t, "session-token", seen[0])
	assert.Equal(t, "fresh-token", seen[1])
	assert.Equal(t, "", seen[2])
}

func TestUploadSendsMultipartForm(t *testing.T) {
	payload := []byte("the book contents")
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/books/assets/file", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(32<<20))
		assert.Equal(t, "b1", r.FormValue("book_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "draft.pdf", header.Filename)

		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
		w.WriteHeader(http.StatusOK)
	})

	blob := NewBlob(payload, "draft.pdf", "application/pdf")
	require.NoError(t, c.UploadBookFile(context.Background(), "b1", blob))
}

func TestUploadProgressIsMonotonicAndCompletes(t *testing.T) {
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	})

	var reports []int
	blob := NewBlob(make([]byte, 1<<20), "cover.png", "image/png").
		WithUploadProgress(func(percent int) {
			reports = append(reports, percent)
		})

	require.NoError(t, c.UploadBookCover(context.Background(), "b1", blob))

	require.NotEmpty(t, reports)
	for i := 1; i < len(reports); i++ {
		assert.GreaterOrEqual(t, reports[i], reports[i-1])
	}
	assert.Equal(t, 100, reports[len(reports)-1])
}

func TestUploadFailureSurfacesMessage(t *testing.T) {
	c := connectTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Message: "unsupported file type"})
	})

	err := c.UploadLogo(context.Background(), NewBlob([]byte("x"), "logo.bmp", "image/bmp"))
	require.Error(t, err)
	assert.Equal(t, "unsupported file type", err.Error())
}

func TestPingBypassesReadiness(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	assert.False(t, c.Ready())
	assert.NoError(t, c.Ping(context.Background()))
}

func TestConnectFailureLeavesClientUnready(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, c.Ready())

	_, got := c.GetAllSuggestions(context.Background())
	assert.True(t, errors.Is(got, faults.ErrGatewayUnavailable))
}
