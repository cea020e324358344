package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vadim/tosembanda/internal/realtime"
)

const publishTimeout = 5 * time.Second

// TypingPublisher broadcasts typing signals
type TypingPublisher interface {
	PublishTyping(ctx context.Context, evt realtime.TypingEvent) error
}

// TypingSignaler debounces local keystrokes into typing broadcasts.
// The first keystroke broadcasts true; idle time after the last keystroke broadcasts one false.
type TypingSignaler struct {
	mu             sync.Mutex
	pub            TypingPublisher
	notifier       Notifier
	conversationID string
	senderID       string
	idle           time.Duration
	timer          *time.Timer
	gen            uint64
	now            func() time.Time
}

// NewTypingSignaler creates a signaler for one conversation
func NewTypingSignaler(pub TypingPublisher, conversationID, senderID string, idle time.Duration, notifier Notifier) *TypingSignaler {
	if notifier == nil {
		notifier = LogNotifier(nil)
	}
	return &TypingSignaler{
		pub:            pub,
		notifier:       notifier,
		conversationID: conversationID,
		senderID:       senderID,
		idle:           idle,
		now:            time.Now,
	}
}

// Keystroke records local input activity
func (s *TypingSignaler) Keystroke() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		s.publish(true)
	} else {
		s.timer.Stop()
	}

	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.idle, func() { s.expire(gen) })
}

// Stop cancels the idle timer and broadcasts false immediately
func (s *TypingSignaler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimer()
	s.publish(false)
}

// Reset cancels the idle timer, broadcasting false only if a signal was pending
func (s *TypingSignaler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelTimer() {
		s.publish(false)
	}
}

// Active reports whether a true signal is outstanding
func (s *TypingSignaler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *TypingSignaler) expire(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a later keystroke or Stop already took over
	if gen != s.gen || s.timer == nil {
		return
	}
	s.timer = nil
	s.publish(false)
}

func (s *TypingSignaler) cancelTimer() bool {
	s.gen++
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

// publish must be called with mu held so signals leave in order
func (s *TypingSignaler) publish(isTyping bool) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := s.pub.PublishTyping(ctx, realtime.TypingEvent{
		ConversationID: s.conversationID,
		SenderID:       s.senderID,
		IsTyping:       isTyping,
		SentAt:         s.now(),
	})
	if err != nil {
		s.notifier.Notify(fmt.Errorf("broadcasting typing state: %w", err))
	}
}

// TypingWatcher tracks whether the peer is typing.
// A true signal not followed by another signal within expiry is cleared locally.
type TypingWatcher struct {
	mu       sync.Mutex
	selfID   string
	expiry   time.Duration
	typing   bool
	timer    *time.Timer
	gen      uint64
	onChange func(bool)
}

// NewTypingWatcher creates a watcher; onChange fires only when the peer flag flips
func NewTypingWatcher(selfID string, expiry time.Duration, onChange func(bool)) *TypingWatcher {
	if onChange == nil {
		onChange = func(bool) {}
	}
	return &TypingWatcher{
		selfID:   selfID,
		expiry:   expiry,
		onChange: onChange,
	}
}

// Handle applies a received typing signal
func (w *TypingWatcher) Handle(evt realtime.TypingEvent) {
	if evt.SenderID == w.selfID {
		return
	}

	w.mu.Lock()
	w.stopTimer()
	changed := w.typing != evt.IsTyping
	w.typing = evt.IsTyping
	if evt.IsTyping && w.expiry > 0 {
		gen := w.gen
		w.timer = time.AfterFunc(w.expiry, func() { w.expire(gen) })
	}
	w.mu.Unlock()

	if changed {
		w.onChange(evt.IsTyping)
	}
}

// PeerTyping reports the current peer flag
func (w *TypingWatcher) PeerTyping() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.typing
}

// Stop cancels the expiry timer
func (w *TypingWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimer()
}

func (w *TypingWatcher) expire(gen uint64) {
	w.mu.Lock()
	if gen != w.gen || !w.typing {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.typing = false
	w.mu.Unlock()

	w.onChange(false)
}

func (w *TypingWatcher) stopTimer() {
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
