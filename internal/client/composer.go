package client

import (
	"context"
	"strings"
	"sync"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

// Composer owns the unsent text of a conversation
type Composer struct {
	mu      sync.Mutex
	draft   string
	session *Session
	typing  *TypingSignaler
}

// NewComposer creates a composer; typing may be nil
func NewComposer(session *Session, typing *TypingSignaler) *Composer {
	return &Composer{session: session, typing: typing}
}

// Type replaces the draft and counts as a keystroke
func (c *Composer) Type(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()

	if c.typing != nil && text != "" {
		c.typing.Keystroke()
	}
}

// Draft returns the current draft
func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Submit sends the draft. The draft is cleared while sending and restored if the send fails.
func (c *Composer) Submit(ctx context.Context) (*entity.Message, error) {
	c.mu.Lock()
	text := c.draft
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return nil, nil
	}
	c.draft = ""
	c.mu.Unlock()

	msg, err := c.session.Send(ctx, text)
	if err != nil {
		c.mu.Lock()
		if c.draft == "" {
			c.draft = text
		}
		c.mu.Unlock()
		return nil, err
	}
	return msg, nil
}
