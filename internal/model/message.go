package model

import "time"

// Message is the normalized representation of one Gmail message as exposed to
// clients. It is derived per request from the remote payload and never stored.
type Message struct {
	ID       string    `json:"id"`
	ThreadID string    `json:"threadId"`
	Subject  string    `json:"subject"`
	From     string    `json:"from"`
	To       []string  `json:"to"`
	Date     time.Time `json:"date"`
	Snippet  string    `json:"snippet"`
	Body     string    `json:"body"`
	IsRead   bool      `json:"isRead"`
	Labels   []string  `json:"labels"`
}
