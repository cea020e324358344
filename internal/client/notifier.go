package client

import "log/slog"

// Notifier surfaces errors from background paths to the user
type Notifier interface {
	Notify(err error)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

type logNotifier struct {
	logger *slog.Logger
}

// LogNotifier reports errors as slog warnings
func LogNotifier(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(err error) {
	if err == nil {
		return
	}
	n.logger.Warn("chat error", "error", err)
}
