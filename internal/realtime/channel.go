// Package realtime maintains the single live server-push subscription for
// the authenticated user: one SSE connection per (userId, token), with
// exponential reconnect backoff and an attempt ceiling.
package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kickstart/client/internal/api"
	"github.com/kickstart/client/internal/models"
)

// State reflects where the channel is in its lifecycle.
type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateBackoff
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateBackoff:
		return "backoff"
	default:
		return "closed"
	}
}

// Handler receives well-formed streamed notifications in server-send order.
type Handler func(models.Notification)

// Options configures a Channel.
type Options struct {
	BaseURL string
	Handler Handler

	// OnDown fires once when the retry ceiling is exhausted and the
	// channel gives up. Optional.
	OnDown func(error)

	// MaxRetries bounds consecutive failed connection attempts. Zero
	// means the default of 8.
	MaxRetries int
	// MaxInterval caps the backoff delay between attempts.
	MaxInterval time.Duration

	// HTTPClient must carry no overall timeout; the connection is long
	// lived by design.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Channel is the single active subscription. Start replaces any prior
// subscription; Stop is idempotent.
type Channel struct {
	opts  Options
	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewChannel constructs a Channel. Handler must not be nil.
func NewChannel(opts Options) *Channel {
	if opts.Handler == nil {
		panic("realtime: handler must not be nil")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 8
	}
	if opts.MaxInterval <= 0 {
		opts.MaxInterval = 2 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Channel{opts: opts}
}

// State returns the channel's current lifecycle state.
func (c *Channel) State() State {
	return State(c.state.Load())
}

// Start opens the per-user stream with the bearer token attached. Starting
// while a subscription is live closes the prior one first: the last start
// wins.
func (c *Channel) Start(userID, token string) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		done := c.done
		c.mu.Unlock()
		<-done
		c.mu.Lock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	go c.run(ctx, done, userID, token)
}

// Stop unsubscribes and closes the connection. Safe to call repeatedly and
// from teardown paths; stopping a closed channel is a no-op.
func (c *Channel) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Channel) run(ctx context.Context, done chan struct{}, userID, token string) {
	defer close(done)
	defer c.state.Store(int32(StateClosed))

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = c.opts.MaxInterval
	policy.MaxElapsedTime = 0
	policy.Reset()

	attempts := 0
	for {
		c.state.Store(int32(StateConnecting))

		err := c.consume(ctx, userID, token, func() {
			// A successful open resets the retry budget.
			attempts = 0
			policy.Reset()
		})
		if ctx.Err() != nil {
			return
		}

		attempts++
		if attempts > c.opts.MaxRetries {
			c.opts.Logger.Error("notification stream gave up", "attempts", attempts-1, "error", err)
			if c.opts.OnDown != nil {
				c.opts.OnDown(fmt.Errorf("stream unavailable after %d attempts: %w", attempts-1, err))
			}
			return
		}

		delay := policy.NextBackOff()
		c.state.Store(int32(StateBackoff))
		c.opts.Logger.Warn("notification stream disconnected", "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// consume opens the stream and dispatches events until the connection
// fails or the context is canceled.
func (c *Channel) consume(ctx context.Context, userID, token string, onOpen func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+api.StreamPath(userID), nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	c.state.Store(int32(StateOpen))
	onOpen()
	c.opts.Logger.Info("notification stream opened", "userId", userID)

	var data []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if len(data) > 0 {
				c.dispatch(strings.Join(data, "\n"))
				data = data[:0]
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // comment / keep-alive
		}
		if value, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(value, " "))
		}
		// event:/id:/retry: fields are not used by the platform stream.
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("stream closed by server")
}

// dispatch parses one event payload. Malformed payloads are logged and
// dropped without affecting channel state.
func (c *Channel) dispatch(payload string) {
	var notification models.Notification
	if err := json.Unmarshal([]byte(payload), &notification); err != nil {
		c.opts.Logger.Warn("dropping malformed stream event", "error", err)
		return
	}
	c.opts.Handler(notification)
}
