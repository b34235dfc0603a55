package stream

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// closeGracePeriod bounds how long Complete waits to write the close frame.
const closeGracePeriod = time.Second

// Message is one WebSocket message received by a Feed.
type Message struct {
	// Type is websocket.TextMessage or websocket.BinaryMessage.
	Type int
	Data []byte
}

// Text returns the message payload as a string.
func (m Message) Text() string {
	return string(m.Data)
}

// Feed is a stream of the messages arriving on a WebSocket connection. A
// reader goroutine delivers each message to subscribers, so subscriber
// callbacks run on that goroutine.
//
// Complete sends a normal close frame and completes the stream; Unsubscribe
// closes the connection. A Feed therefore works both as a subscribe field
// and as an unsubscribe field.
type Feed struct {
	subject Subject[Message]
	conn    *websocket.Conn
	logger  *slog.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

// FeedOption configures a Feed.
type FeedOption func(*feedConfig)

type feedConfig struct {
	dialer *websocket.Dialer
	header http.Header
	logger *slog.Logger
}

// WithDialer sets the dialer used by Dial. Default: websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) FeedOption {
	return func(c *feedConfig) {
		c.dialer = d
	}
}

// WithHeader sets extra handshake headers used by Dial.
func WithHeader(h http.Header) FeedOption {
	return func(c *feedConfig) {
		c.header = h
	}
}

// WithFeedLogger sets the feed's logger.
func WithFeedLogger(l *slog.Logger) FeedOption {
	return func(c *feedConfig) {
		c.logger = l
	}
}

func newFeedConfig(opts []FeedOption) feedConfig {
	cfg := feedConfig{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default().With("component", "feed")
	}
	return cfg
}

// Dial connects to the WebSocket endpoint at url and starts reading.
func Dial(ctx context.Context, url string, opts ...FeedOption) (*Feed, error) {
	cfg := newFeedConfig(opts)

	conn, _, err := cfg.dialer.DialContext(ctx, url, cfg.header)
	if err != nil {
		return nil, err
	}
	return newFeed(conn, cfg), nil
}

// NewFeed wraps an established connection and starts reading from it. The
// Feed takes ownership of conn.
func NewFeed(conn *websocket.Conn, opts ...FeedOption) *Feed {
	return newFeed(conn, newFeedConfig(opts))
}

func newFeed(conn *websocket.Conn, cfg feedConfig) *Feed {
	f := &Feed{
		conn:   conn,
		logger: cfg.logger.With("remote", conn.RemoteAddr().String()),
		done:   make(chan struct{}),
	}
	go f.readLoop()
	return f
}

func (f *Feed) readLoop() {
	defer close(f.done)
	defer f.subject.Complete()

	for {
		mt, data, err := f.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) && !errors.Is(err, net.ErrClosed) {
				f.setErr(err)
				f.logger.Warn("feed read failed", "error", err)
			}
			return
		}
		f.subject.Next(Message{Type: mt, Data: data})
	}
}

func (f *Feed) setErr(err error) {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	if f.err == nil {
		f.err = err
	}
}

// Subscribe registers fn for every message received.
func (f *Feed) Subscribe(fn func(Message)) *Subscription {
	return f.subject.Subscribe(fn)
}

// Send writes a text message to the peer.
func (f *Feed) Send(text string) error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return f.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// Observers returns the number of live subscribers.
func (f *Feed) Observers() int {
	return f.subject.Observers()
}

// Complete asks the peer to close the connection normally and completes the
// stream.
func (f *Feed) Complete() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := f.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)); err != nil &&
		!errors.Is(err, websocket.ErrCloseSent) {
		f.logger.Debug("feed close frame not sent", "error", err)
	}
	f.subject.Complete()
}

// Unsubscribe closes the connection and drops all subscribers.
func (f *Feed) Unsubscribe() {
	f.closeOnce.Do(func() {
		f.subject.Unsubscribe()
		if err := f.conn.Close(); err != nil {
			f.logger.Debug("feed close failed", "error", err)
		}
	})
}

// Done is closed when the reader goroutine exits.
func (f *Feed) Done() <-chan struct{} {
	return f.done
}

// Err returns the read error that ended the feed, if it was not a normal
// closure.
func (f *Feed) Err() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.err
}
