// Package feed streams live platform events (token launches, buys, sells)
// from the backend websocket endpoint. The feed is notification-only; trade
// and launch flows never depend on it.
package feed

import (
	"context"
	"encoding/json"
	"math/big"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Event kinds emitted by the backend feed.
const (
	EventTokenCreated = "tokenCreated"
	EventTokensBought = "tokensBought"
	EventTokensSold   = "tokensSold"
)

// Event is a single feed message. Amounts are wei strings on the wire and
// decoded lazily so a malformed payload never kills the stream.
type Event struct {
	Type         string    `json:"type"`
	TokenAddress string    `json:"tokenAddress"`
	TokenName    string    `json:"tokenName,omitempty"`
	TokenSymbol  string    `json:"tokenSymbol,omitempty"`
	Account      string    `json:"account,omitempty"`
	EthAmount    string    `json:"ethAmount,omitempty"`
	TokenAmount  string    `json:"tokenAmount,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// EthWei returns the event's ETH amount in wei, or nil when absent or
// unparsable.
func (e *Event) EthWei() *big.Int {
	if e.EthAmount == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(e.EthAmount, 10)
	if !ok {
		return nil
	}
	return v
}

// TokenWei returns the event's token amount in wei, or nil when absent or
// unparsable.
func (e *Event) TokenWei() *big.Int {
	if e.TokenAmount == "" {
		return nil
	}
	v, ok := new(big.Int).SetString(e.TokenAmount, 10)
	if !ok {
		return nil
	}
	return v
}

// Conn is the subset of a websocket connection the feed needs.
type Conn interface {
	ReadMessage() (messageType int, data []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Dialer opens websocket connections. Injected so tests can supply a fake
// transport.
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// GorillaDialer dials with the default gorilla/websocket dialer.
type GorillaDialer struct{}

func (GorillaDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Config controls the feed connection.
type Config struct {
	Endpoint       string
	ReconnectDelay time.Duration // base delay, doubled per consecutive failure
	MaxDelay       time.Duration // backoff ceiling
	PingInterval   time.Duration
	Buffer         int // event channel capacity
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ReconnectDelay <= 0 {
		out.ReconnectDelay = 2 * time.Second
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = 30 * time.Second
	}
	if out.PingInterval <= 0 {
		out.PingInterval = 30 * time.Second
	}
	if out.Buffer <= 0 {
		out.Buffer = 64
	}
	return out
}

// Feed maintains a websocket subscription to the platform event stream and
// delivers decoded events on a channel. A dropped connection is redialed with
// exponential backoff until the context is cancelled.
type Feed struct {
	cfg    Config
	dialer Dialer
	log    zerolog.Logger
	events chan Event
}

// New builds a feed. Run must be called to start streaming.
func New(cfg Config, dialer Dialer, log zerolog.Logger) *Feed {
	c := cfg.withDefaults()
	return &Feed{
		cfg:    c,
		dialer: dialer,
		log:    log.With().Str("component", "feed").Logger(),
		events: make(chan Event, c.Buffer),
	}
}

// Events is the delivery channel. It is closed when Run returns.
func (f *Feed) Events() <-chan Event {
	return f.events
}

// Run connects and streams until ctx is cancelled, reconnecting on any
// transport error. It always returns ctx.Err().
func (f *Feed) Run(ctx context.Context) error {
	defer close(f.events)

	delay := f.cfg.ReconnectDelay
	for {
		conn, err := f.dialer.Dial(ctx, f.cfg.Endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Warn().Err(err).Dur("retry_in", delay).Msg("feed dial failed")
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = nextDelay(delay, f.cfg.MaxDelay)
			continue
		}

		f.log.Info().Str("endpoint", f.cfg.Endpoint).Msg("feed connected")
		delay = f.cfg.ReconnectDelay
		err = f.stream(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.Warn().Err(err).Dur("retry_in", delay).Msg("feed disconnected")
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
		delay = nextDelay(delay, f.cfg.MaxDelay)
	}
}

// stream reads events off one connection until it errors or ctx is done.
func (f *Feed) stream(ctx context.Context, conn Conn) error {
	// A reader goroutine is needed because ReadMessage has no context.
	type frame struct {
		data []byte
		err  error
	}
	frames := make(chan frame, 1)
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			select {
			case frames <- frame{data, err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(f.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		case fr := <-frames:
			if fr.err != nil {
				return fr.err
			}
			f.dispatch(fr.data)
		}
	}
}

func (f *Feed) dispatch(data []byte) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		f.log.Debug().Err(err).Msg("feed: skipping malformed message")
		return
	}
	switch ev.Type {
	case EventTokenCreated, EventTokensBought, EventTokensSold:
	default:
		return
	}
	select {
	case f.events <- ev:
	default:
		// Slow consumer: drop rather than stall the read loop.
		f.log.Debug().Str("type", ev.Type).Msg("feed: dropping event, buffer full")
	}
}

func nextDelay(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
