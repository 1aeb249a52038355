package models

import "time"

type BookFileType string

const (
	BookFilePDF     BookFileType = "pdf"
	BookFileWordDoc BookFileType = "wordDoc"
	BookFileDocx    BookFileType = "wordDocx"
)

type NoteFileType string

const (
	NoteFilePDF   NoteFileType = "pdf"
	NoteFileVideo NoteFileType = "video"
	NoteFileImage NoteFileType = "image"
)

/*
	Content records are opaque to the client core; attachments are referenced
	indirectly by blob key, never embedded. SortOrder drives the featured
	ordering the backend returns, lowest first.
*/

type BookMetadata struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Genre      string `json:"genre"`
	SortOrder  int64  `json:"sort_order"`
	CoverImage string `json:"cover_image"`
}

type BookAsset struct {
	ID         string       `json:"id"`
	BookFile   string       `json:"book_file"`
	FileType   BookFileType `json:"file_type"`
	CoverImage string       `json:"cover_image"`
}

type SiteAssets struct {
	Logo        string `json:"logo"`
	AuthorPhoto string `json:"author_photo"`
}

type BlogPost struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	File         string    `json:"file,omitempty"`
	FileType     string    `json:"file_type,omitempty"`
	PreviewImage string    `json:"preview_image,omitempty"`
	PostedAt     time.Time `json:"posted_at"`
}

type CharacterNote struct {
	ID           string       `json:"id"`
	BookID       string       `json:"book_id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	File         string       `json:"file,omitempty"`
	FileType     NoteFileType `json:"file_type,omitempty"`
	PreviewImage string       `json:"preview_image,omitempty"`
}

type NewComing struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ReleaseDate string `json:"release_date,omitempty"`
	SortOrder   int64  `json:"sort_order"`
}
