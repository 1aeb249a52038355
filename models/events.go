package models

import "time"

/*
	Content change notices emitted by the backend. The client translates
	these into the same invalidation patterns its own mutations declare, so
	remote edits and self-originated edits converge on one refresh path.
*/

type ContentAction string

const (
	ContentAdded   ContentAction = "added"
	ContentUpdated ContentAction = "updated"
	ContentDeleted ContentAction = "deleted"
)

type ContentEvent struct {
	Resource  string        `json:"resource"` // e.g. "book", "blogPost", "rating"
	ID        string        `json:"id,omitempty"`
	Action    ContentAction `json:"action"`
	EmittedAt time.Time     `json:"emitted_at"`
}
