package portal

import (
	"fmt"
	"strings"

	"github.com/frictionalfables/fable/client"
)

const (
	maxDocumentBytes = 50 << 20
	maxImageBytes    = 10 << 20
)

var documentContentTypes = map[string]struct{}{
	"application/pdf":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
}

// validateDocument admits book documents: pdf, doc or docx, at most 50MB.
func validateDocument(blob *client.Blob) error {
	if blob == nil || blob.Size() == 0 {
		return fmt.Errorf("document is empty")
	}
	if blob.Size() > maxDocumentBytes {
		return fmt.Errorf("document exceeds the %dMB limit", maxDocumentBytes>>20)
	}
	if _, ok := documentContentTypes[blob.ContentType()]; !ok {
		return fmt.Errorf("unsupported document type %q, expected pdf, doc or docx", blob.ContentType())
	}
	return nil
}

// validateImage admits any image/* payload of at most 10MB.
func validateImage(blob *client.Blob) error {
	if blob == nil || blob.Size() == 0 {
		return fmt.Errorf("image is empty")
	}
	if blob.Size() > maxImageBytes {
		return fmt.Errorf("image exceeds the %dMB limit", maxImageBytes>>20)
	}
	if !strings.HasPrefix(blob.ContentType(), "image/") {
		return fmt.Errorf("unsupported image type %q", blob.ContentType())
	}
	return nil
}
