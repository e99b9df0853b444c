package email

import (
	"context"
	"errors"
)

var ErrNoRecipients = errors.New("email_no_recipients")

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outbound email. Text is required; HTML is an optional
// alternative body.
type Message struct {
	To          []string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

type Provider interface {
	Send(ctx context.Context, msg Message) error
}
