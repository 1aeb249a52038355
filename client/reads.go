package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frictionalfables/fable/models"
)

/*
	Read operations. Identity-scoped reads return data specific to the
	caller's session token and must be re-fetched after any identity
	change; public reads are freely cacheable and invalidated only by
	matching mutations.
*/

// GetCallerUserProfile returns the caller's profile, or nil when none has
// been created yet.
func (c *Client) GetCallerUserProfile(ctx context.Context) (*models.UserProfile, error) {
	var resp struct {
		Data *models.UserProfile `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/profile/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetUserProfile returns the public projection of another user's profile.
func (c *Client) GetUserProfile(ctx context.Context, principal string) (*models.PublicProfile, error) {
	if principal == "" {
		return nil, fmt.Errorf("principal cannot be empty")
	}
	var resp struct {
		Data *models.PublicProfile `json:"data"`
	}
	params := map[string]string{"user": principal}
	if err := c.call(ctx, http.MethodGet, "api/v1/profile/get", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetCallerUserRole(ctx context.Context) (models.UserRole, error) {
	var resp struct {
		Data models.UserRole `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/role/me", nil, nil, &resp); err != nil {
		return models.RoleGuest, err
	}
	return resp.Data, nil
}

// IsCurrentSessionAdmin reports whether the caller's admin session is
// active. It must never be inferred from the identity alone.
func (c *Client) IsCurrentSessionAdmin(ctx context.Context) (bool, error) {
	var resp struct {
		Data bool `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/admin/session", nil, nil, &resp); err != nil {
		return false, err
	}
	return resp.Data, nil
}

func (c *Client) GetBooksInFeaturedOrder(ctx context.Context) ([]models.BookMetadata, error) {
	var resp struct {
		Data []models.BookMetadata `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/books/featured", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetBookAssets(ctx context.Context, bookID string) (*models.BookAsset, error) {
	if bookID == "" {
		return nil, fmt.Errorf("bookID cannot be empty")
	}
	var resp struct {
		Data *models.BookAsset `json:"data"`
	}
	params := map[string]string{"bookId": bookID}
	if err := c.call(ctx, http.MethodGet, "api/v1/books/assets", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetSiteAssets(ctx context.Context) (*models.SiteAssets, error) {
	var resp struct {
		Data *models.SiteAssets `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/site/assets", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetAllBlogPosts(ctx context.Context) ([]models.BlogPost, error) {
	var resp struct {
		Data []models.BlogPost `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/blog", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetBlogPost(ctx context.Context, id string) (*models.BlogPost, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}
	var resp struct {
		Data *models.BlogPost `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/blog/get", map[string]string{"id": id}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetAllCharacterNotes(ctx context.Context) ([]models.CharacterNote, error) {
	var resp struct {
		Data []models.CharacterNote `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/notes", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetCharacterNote(ctx context.Context, id string) (*models.CharacterNote, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}
	var resp struct {
		Data *models.CharacterNote `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/notes/get", map[string]string{"id": id}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetAllNewComings(ctx context.Context) ([]models.NewComing, error) {
	var resp struct {
		Data []models.NewComing `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/newcomings", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetNewComing(ctx context.Context, id string) (*models.NewComing, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}
	var resp struct {
		Data *models.NewComing `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/newcomings/get", map[string]string{"id": id}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetBookComments(ctx context.Context, bookID string) ([]models.Comment, error) {
	if bookID == "" {
		return nil, fmt.Errorf("bookID cannot be empty")
	}
	var resp struct {
		Data []models.Comment `json:"data"`
	}
	params := map[string]string{"bookId": bookID}
	if err := c.call(ctx, http.MethodGet, "api/v1/books/comments", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetBookRatings(ctx context.Context, bookID string) ([]models.Rating, error) {
	if bookID == "" {
		return nil, fmt.Errorf("bookID cannot be empty")
	}
	var resp struct {
		Data []models.Rating `json:"data"`
	}
	params := map[string]string{"bookId": bookID}
	if err := c.call(ctx, http.MethodGet, "api/v1/books/ratings", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetBookAverageRating(ctx context.Context, bookID string) (*models.RatingSummary, error) {
	if bookID == "" {
		return nil, fmt.Errorf("bookID cannot be empty")
	}
	var resp struct {
		Data *models.RatingSummary `json:"data"`
	}
	params := map[string]string{"bookId": bookID}
	if err := c.call(ctx, http.MethodGet, "api/v1/books/ratings/average", params, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetAllThreadsWithReplies(ctx context.Context) ([]models.ForumThread, error) {
	var resp struct {
		Data []models.ForumThread `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/forum/threads", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetThread(ctx context.Context, id string) (*models.ForumThread, error) {
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}
	var resp struct {
		Data *models.ForumThread `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/forum/thread", map[string]string{"id": id}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) GetAllSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	var resp struct {
		Data []models.Suggestion `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "api/v1/suggestions", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
