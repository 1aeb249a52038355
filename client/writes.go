package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frictionalfables/fable/models"
)

/*
	Mutations. Each one's invalidation obligations are declared where the
	portal binds it to the cache; the gateway itself only executes the call
	and propagates failures verbatim.
*/

func (c *Client) SaveCallerUserProfile(ctx context.Context, profile models.UserProfile) error {
	return c.call(ctx, http.MethodPost, "api/v1/profile/me", nil, profile, nil)
}

// SetWelcomeMessageShown persists the one-time welcome acknowledgment.
func (c *Client) SetWelcomeMessageShown(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, "api/v1/profile/me/welcome", nil, nil, nil)
}

func (c *Client) AssignUserRole(ctx context.Context, principal string, role models.UserRole) error {
	if principal == "" {
		return fmt.Errorf("principal cannot be empty")
	}
	payload := map[string]string{"user": principal, "role": string(role)}
	return c.call(ctx, http.MethodPost, "api/v1/role/assign", nil, payload, nil)
}

type BookPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Genre     string `json:"genre"`
	SortOrder int64  `json:"sort_order"`
}

func (c *Client) AddBook(ctx context.Context, book BookPayload) error {
	if book.ID == "" {
		return fmt.Errorf("book id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/books/add", nil, book, nil)
}

func (c *Client) UpdateBook(ctx context.Context, book BookPayload) error {
	if book.ID == "" {
		return fmt.Errorf("book id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/books/update", nil, book, nil)
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("book id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/books/delete", nil, map[string]string{"id": id}, nil)
}

type BlogPostPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	FileType    string `json:"file_type,omitempty"`
}

func (c *Client) AddBlogPost(ctx context.Context, post BlogPostPayload) error {
	if post.ID == "" {
		return fmt.Errorf("blog post id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/blog/add", nil, post, nil)
}

func (c *Client) UpdateBlogPost(ctx context.Context, post BlogPostPayload) error {
	if post.ID == "" {
		return fmt.Errorf("blog post id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/blog/update", nil, post, nil)
}

func (c *Client) DeleteBlogPost(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("blog post id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/blog/delete", nil, map[string]string{"id": id}, nil)
}

type CharacterNotePayload struct {
	ID          string              `json:"id"`
	BookID      string              `json:"book_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	FileType    models.NoteFileType `json:"file_type,omitempty"`
}

func (c *Client) AddCharacterNote(ctx context.Context, note CharacterNotePayload) error {
	if note.ID == "" {
		return fmt.Errorf("character note id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/notes/add", nil, note, nil)
}

func (c *Client) UpdateCharacterNote(ctx context.Context, note CharacterNotePayload) error {
	if note.ID == "" {
		return fmt.Errorf("character note id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/notes/update", nil, note, nil)
}

func (c *Client) DeleteCharacterNote(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("character note id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/notes/delete", nil, map[string]string{"id": id}, nil)
}

type NewComingPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ReleaseDate string `json:"release_date,omitempty"`
	SortOrder   int64  `json:"sort_order"`
}

func (c *Client) AddNewComing(ctx context.Context, entry NewComingPayload) error {
	if entry.ID == "" {
		return fmt.Errorf("new coming id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/newcomings/add", nil, entry, nil)
}

func (c *Client) UpdateNewComing(ctx context.Context, entry NewComingPayload) error {
	if entry.ID == "" {
		return fmt.Errorf("new coming id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/newcomings/update", nil, entry, nil)
}

func (c *Client) DeleteNewComing(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("new coming id cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/newcomings/delete", nil, map[string]string{"id": id}, nil)
}

func (c *Client) AddComment(ctx context.Context, bookID, text string) (string, error) {
	if bookID == "" {
		return "", fmt.Errorf("bookID cannot be empty")
	}
	payload := map[string]string{"book_id": bookID, "text": text}
	var resp struct {
		Data string `json:"data"` // id of the created comment
	}
	if err := c.call(ctx, http.MethodPost, "api/v1/books/comments/add", nil, payload, &resp); err != nil {
		return "", err
	}
	return resp.Data, nil
}

// LikeComment may be applied once per (caller, comment) pair; the backend
// reports a repeat with an "already liked" failure.
func (c *Client) LikeComment(ctx context.Context, commentID string) error {
	if commentID == "" {
		return fmt.Errorf("commentID cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/books/comments/like", nil, map[string]string{"id": commentID}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	if commentID == "" {
		return fmt.Errorf("commentID cannot be empty")
	}
	return c.call(ctx, http.MethodPost, "api/v1/books/comments/delete", nil, map[string]string{"id": commentID}, nil)
}

// AddRating may be applied once per (caller, book) pair; the backend
// reports a repeat with an "already rated" failure.
func (c *Client) AddRating(ctx context.Context, bookID string, stars int) error {
	if bookID == "" {
		return fmt.Errorf("bookID cannot be empty")
	}
	if stars < 1 || stars > 5 {
		return fmt.Errorf("stars must be between 1 and 5")
	}
	payload := map[string]any{"book_id": bookID, "stars": stars}
	return c.call(ctx, http.MethodPost, "api/v1/books/ratings/add", nil, payload, nil)
}

func (c *Client) AddThread(ctx context.Context, id, title, body string) error {
	if id == "" {
		return fmt.Errorf("thread id cannot be empty")
	}
	payload := map[string]string{"id": id, "title": title, "body": body}
	return c.call(ctx, http.MethodPost, "api/v1/forum/threads/add", nil, payload, nil)
}

func (c *Client) AddReply(ctx context.Context, id, threadID, body string) error {
	if threadID == "" {
		return fmt.Errorf("threadID cannot be empty")
	}
	payload := map[string]string{"id": id, "thread_id": threadID, "body": body}
	return c.call(ctx, http.MethodPost, "api/v1/forum/replies/add", nil, payload, nil)
}

func (c *Client) AddSuggestion(ctx context.Context, id, text string) error {
	if id == "" {
		return fmt.Errorf("suggestion id cannot be empty")
	}
	payload := map[string]string{"id": id, "text": text}
	return c.call(ctx, http.MethodPost, "api/v1/suggestions/add", nil, payload, nil)
}
