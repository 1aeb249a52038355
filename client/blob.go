package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync"

	"github.com/pkg/errors"

	"github.com/frictionalfables/fable/faults"
)

// ProgressFunc receives upload progress as a percentage in [0, 100].
// Reported values never decrease; 100 is delivered on success. Small
// uploads may complete without any intermediate reports.
type ProgressFunc func(percent int)

// Blob is a file payload destined for the gateway's asset store.
type Blob struct {
	data        []byte
	filename    string
	contentType string
	onProgress  ProgressFunc
}

func NewBlob(data []byte, filename, contentType string) *Blob {
	return &Blob{
		data:        data,
		filename:    filename,
		contentType: contentType,
	}
}

// WithUploadProgress registers a progress callback for the upload.
func (b *Blob) WithUploadProgress(fn ProgressFunc) *Blob {
	b.onProgress = fn
	return b
}

func (b *Blob) Size() int64         { return int64(len(b.data)) }
func (b *Blob) Filename() string    { return b.filename }
func (b *Blob) ContentType() string { return b.contentType }

// progressReader reports cumulative read progress against a known total.
// Reports are monotonic: a smaller percentage than one already delivered
// is never emitted.
type progressReader struct {
	inner io.Reader
	total int64

	mu   sync.Mutex
	read int64
	last int
	fn   ProgressFunc
}

func newProgressReader(inner io.Reader, total int64, fn ProgressFunc) *progressReader {
	return &progressReader{inner: inner, total: total, fn: fn, last: -1}
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.inner.Read(p)
	if n > 0 && pr.fn != nil && pr.total > 0 {
		pr.mu.Lock()
		pr.read += int64(n)
		pct := int(pr.read * 100 / pr.total)
		if pct > 100 {
			pct = 100
		}
		if pct > pr.last {
			pr.last = pct
			fn := pr.fn
			pr.mu.Unlock()
			fn(pct)
			return n, err
		}
		pr.mu.Unlock()
	}
	return n, err
}

func (pr *progressReader) finish() {
	if pr.fn == nil {
		return
	}
	pr.mu.Lock()
	done := pr.last >= 100
	pr.last = 100
	pr.mu.Unlock()
	if !done {
		pr.fn(100)
	}
}

// UploadBookFile uploads a book document (pdf, doc, docx) for the given book.
func (c *Client) UploadBookFile(ctx context.Context, bookID string, blob *Blob) error {
	if bookID == "" {
		return fmt.Errorf("bookID cannot be empty")
	}
	return c.uploadBlob(ctx, "api/v1/books/assets/file", map[string]string{"book_id": bookID}, blob)
}

// UploadBookCover uploads a cover image for the given book.
func (c *Client) UploadBookCover(ctx context.Context, bookID string, blob *Blob) error {
	if bookID == "" {
		return fmt.Errorf("bookID cannot be empty")
	}
	return c.uploadBlob(ctx, "api/v1/books/assets/cover", map[string]string{"book_id": bookID}, blob)
}

// UploadLogo replaces the site logo.
func (c *Client) UploadLogo(ctx context.Context, blob *Blob) error {
	return c.uploadBlob(ctx, "api/v1/site/assets/logo", nil, blob)
}

// UploadAuthorPhoto replaces the site author photo.
func (c *Client) UploadAuthorPhoto(ctx context.Context, blob *Blob) error {
	return c.uploadBlob(ctx, "api/v1/site/assets/author-photo", nil, blob)
}

func (c *Client) uploadBlob(ctx context.Context, path string, fields map[string]string, blob *Blob) error {
	if !c.ready.Load() {
		return faults.ErrGatewayUnavailable
	}
	if blob == nil || len(blob.data) == 0 {
		return errors.New("blob is empty")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limiter interrupted")
		}
	}

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return errors.Wrap(err, "could not write form field")
		}
	}
	part, err := mw.CreateFormFile("file", blob.filename)
	if err != nil {
		return errors.Wrap(err, "could not create form file")
	}
	if _, err := part.Write(blob.data); err != nil {
		return errors.Wrap(err, "could not write blob data")
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "could not finalize form")
	}

	total := int64(form.Len())
	pr := newProgressReader(&form, total, blob.onProgress)

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), pr)
	if err != nil {
		return errors.Wrap(err, "could not build upload request")
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, readErr := io.ReadAll(resp.Body)
		if readErr == nil {
			var errorResp ErrorResponse
			if jsonErr := json.Unmarshal(raw, &errorResp); jsonErr == nil && errorResp.Message != "" {
				return errors.New(errorResp.Message)
			}
		}
		return fmt.Errorf("server returned status %d for upload %s", resp.StatusCode, path)
	}
	pr.finish()

	c.logger.Debug(
		"blob uploaded",
		"path", path,
		"filename", blob.filename,
		"size", len(blob.data),
	)
	return nil
}
