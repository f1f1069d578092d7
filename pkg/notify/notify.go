// Package notify delivers rendered reports over Email, Webhook and Telegram.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Channel represents a notification channel type.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWebhook  Channel = "webhook"
	ChannelTelegram Channel = "telegram"
)

// ErrNoChannels is returned when a message is dispatched with nothing
// registered to carry it.
var ErrNoChannels = errors.New("no notification channels configured")

// Message represents a notification message.
type Message struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	HTMLBody string `json:"html_body,omitempty"` // Rich HTML for email
	Format   string `json:"format"`              // "markdown", "html", "plain"
	URL      string `json:"url,omitempty"`
}

// Notifier sends a message over one channel.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
	Channel() Channel
}

// Dispatcher routes messages to the registered notifiers.
type Dispatcher struct {
	notifiers map[Channel]Notifier
	logger    *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		notifiers: make(map[Channel]Notifier),
		logger:    slog.Default(),
	}
}

// Register adds n, replacing any notifier on the same channel.
func (d *Dispatcher) Register(n Notifier) {
	d.notifiers[n.Channel()] = n
}

// Channels lists the registered channels in name order.
func (d *Dispatcher) Channels() []Channel {
	chs := make([]Channel, 0, len(d.notifiers))
	for ch := range d.notifiers {
		chs = append(chs, ch)
	}
	slices.Sort(chs)
	return chs
}

// Dispatch sends msg on each channel and joins the failures. Unregistered
// channels are skipped with a warning.
func (d *Dispatcher) Dispatch(ctx context.Context, channels []Channel, msg Message) error {
	var errs []error
	sent := 0
	for _, ch := range channels {
		notifier, ok := d.notifiers[ch]
		if !ok {
			d.logger.Warn("notifier not registered", "channel", ch)
			continue
		}
		if err := notifier.Send(ctx, msg); err != nil {
			d.logger.Error("notification failed", "channel", ch, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
			continue
		}
		sent++
		d.logger.Info("notification sent", "channel", ch, "title", msg.Title)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if sent == 0 {
		return ErrNoChannels
	}
	return nil
}

// SendAll sends msg on every registered channel.
func (d *Dispatcher) SendAll(ctx context.Context, msg Message) error {
	return d.Dispatch(ctx, d.Channels(), msg)
}
