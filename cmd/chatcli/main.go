package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vadim/tosembanda/internal/apperr"
	"github.com/vadim/tosembanda/internal/client"
	"github.com/vadim/tosembanda/internal/config"
	"github.com/vadim/tosembanda/internal/httpx/upstream/chatapi"
	"github.com/vadim/tosembanda/internal/realtime"
)

type bus interface {
	client.Bus
	Close()
}

func main() {
	peer := flag.String("peer", "", "profile id to chat with")
	listing := flag.String("listing", "", "listing id whose owner to contact")
	flag.Parse()

	if *peer == "" && *listing == "" {
		fmt.Fprintln(os.Stderr, "usage: chatcli -peer <profile id> | -listing <listing id>")
		os.Exit(2)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// the terminal belongs to the program, so logs go to stderr at warn level only
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *peer, *listing, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", apperr.MessageOf(err))
		logger.Error("chat client stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Client, peer, listing string, logger *slog.Logger) error {
	b, err := connectBus(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	api := chatapi.New(
		chatapi.WithBaseURL(cfg.APIURL),
		chatapi.WithToken(cfg.Token),
	)

	r := &relay{}
	c := client.New(api, b, client.Config{
		RequestTimeout: cfg.RequestTimeout,
		TypingIdle:     cfg.TypingIdle,
		TypingExpiry:   cfg.TypingExpiry,
		Notifier: client.NotifierFunc(func(err error) {
			r.send(noticeMsg{text: apperr.MessageOf(err)})
		}),
	})
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer c.Close()

	changed := func() { r.send(changedMsg{}) }
	c.Notifications().OnChange(func(int64) { changed() })

	view, err := c.Open(ctx, peer, listing, client.ViewHooks{
		OnEntries:    func([]client.Entry) { changed() },
		OnPeerTyping: func(bool) { changed() },
	})
	if err != nil {
		return err
	}
	defer view.Close()

	title := "chat with " + peer
	if peer == "" {
		title = "chat about listing " + listing
	}

	m := newModel(ctx, title, c.UserID(), view.Composer, liveState{view: view, notifications: c.Notifications()}, c.Inbox())
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	r.attach(p)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func connectBus(ctx context.Context, cfg config.Client, logger *slog.Logger) (bus, error) {
	if cfg.NATSURL == "" {
		logger.Warn("NATS_URL is empty, live updates are disabled")
		return realtime.NewMemoryBus(), nil
	}

	return realtime.NewNATSBus(ctx, realtime.NATSConfig{
		URL:           cfg.NATSURL,
		SubjectPrefix: cfg.SubjectPrefix,
		StreamName:    cfg.StreamName,
		Name:          "chatcli",
	}, logger)
}

// relay forwards client callbacks into the program once it exists.
// Messages before that are dropped; Init re-reads the state anyway.
type relay struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *relay) attach(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *relay) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

type liveState struct {
	view          *client.View
	notifications *client.Notifications
}

func (s liveState) Entries() []client.Entry { return s.view.Session.Entries() }
func (s liveState) PeerTyping() bool        { return s.view.PeerTyping() }
func (s liveState) Unread() int64           { return s.notifications.Unread() }
