package models

import "time"

type Comment struct {
	ID       string    `json:"id"`
	BookID   string    `json:"book_id"`
	Author   string    `json:"author"` // principal of the commenter
	Text     string    `json:"text"`
	Likes    int       `json:"likes"`
	PostedAt time.Time `json:"posted_at"`
}

type Rating struct {
	BookID  string    `json:"book_id"`
	Rater   string    `json:"rater"`
	Stars   int       `json:"stars"` // 1..5
	RatedAt time.Time `json:"rated_at"`
}

type RatingSummary struct {
	BookID  string  `json:"book_id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type ForumReply struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"thread_id"`
	Author   string    `json:"author"`
	Body     string    `json:"body"`
	PostedAt time.Time `json:"posted_at"`
}

type ForumThread struct {
	ID       string       `json:"id"`
	Author   string       `json:"author"`
	Title    string       `json:"title"`
	Body     string       `json:"body"`
	PostedAt time.Time    `json:"posted_at"`
	Replies  []ForumReply `json:"replies"`
}

type Suggestion struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submitted_at"`
}
