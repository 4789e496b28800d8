// Package watch is the change-notification layer. Mutating handlers publish
// events to Redis channels; consumers subscribe and re-fetch whatever they
// are displaying on every event. The payload deliberately carries no row
// data: an event only says "something in this collection changed".
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrUnavailable is returned by Subscribe when no Redis client is configured.
var ErrUnavailable = errors.New("change stream unavailable")

// Channel names. One channel per collection whose changes are observable.
const (
	SeatChannel    = "seats.changed"
	SessionChannel = "sessions.changed"
)

// Event kinds.
const (
	KindInsert    = "insert"
	KindUpdate    = "update"
	KindDelete    = "delete"
	KindSignedIn  = "signed_in"
	KindSignedOut = "signed_out"
)

// Event is the wire format published on a channel.
type Event struct {
	Kind    string    `json:"kind"`
	ID      string    `json:"id,omitempty"` // subject id: seat id or user id
	Email   string    `json:"email,omitempty"`
	IsAdmin bool      `json:"is_admin,omitempty"`
	At      time.Time `json:"at"`
}

// Bus publishes and subscribes to change events over Redis pub/sub. A nil
// Bus (or a Bus built over a nil client) is valid and degrades to a no-op:
// publishes are dropped and subscriptions report unavailability.
type Bus struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewBus wraps a Redis client. The client may be nil.
func NewBus(rdb *redis.Client, log zerolog.Logger) *Bus {
	return &Bus{rdb: rdb, log: log}
}

// Available reports whether events will actually flow.
func (b *Bus) Available() bool {
	return b != nil && b.rdb != nil
}

// Publish sends an event on the channel. Failures are logged and returned;
// callers on the write path treat them as non-fatal since the write itself
// has already committed.
func (b *Bus) Publish(ctx context.Context, channel string, ev Event) error {
	if !b.Available() {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		b.log.Error().Err(err).Str("channel", channel).Msg("publish change event failed")
		return err
	}
	return nil
}

// Subscription is a live subscription to one channel. Close releases the
// underlying pub/sub connection; the Events channel is closed afterwards.
type Subscription struct {
	events chan Event
	pubsub *redis.PubSub
}

// Events returns the stream of decoded events.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close tears the subscription down. Safe to call once per subscription.
func (s *Subscription) Close() error { return s.pubsub.Close() }

// Subscribe opens a subscription on the channel. Undecodable messages are
// logged and skipped. Returns ErrUnavailable when the bus has no Redis
// client; callers fall back to plain request/response fetching.
func (b *Bus) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	if !b.Available() {
		return nil, ErrUnavailable
	}
	ps := b.rdb.Subscribe(ctx, channel)
	// Force the subscription to be established before returning so that
	// events published right after Subscribe are not lost.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	sub := &Subscription{events: make(chan Event, 16), pubsub: ps}
	go func() {
		defer close(sub.events)
		for msg := range ps.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn().Err(err).Str("channel", channel).Msg("drop undecodable change event")
				continue
			}
			select {
			case sub.events <- ev:
			default:
				// Consumer is not keeping up. Dropping is fine: every event
				// means "re-fetch", so one delivered event covers any that
				// were dropped before it.
			}
		}
	}()
	return sub, nil
}
