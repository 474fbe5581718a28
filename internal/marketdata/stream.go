package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// StreamConfig configures streaming client behavior.
type StreamConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// BarIntervalMs is the bar size quotes are folded into.
	BarIntervalMs int64
}

// DefaultStreamConfig returns default streaming configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		BarIntervalMs:     60_000,
	}
}

// StreamClient consumes a quote feed over WebSocket and folds quotes into
// bars. Subscribers receive completed bars per symbol.
type StreamClient struct {
	endpoint string
	config   StreamConfig
	logger   zerolog.Logger

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	agg   *BarAggregator
	aggMu sync.Mutex

	subs   map[string]chan Bar
	subsMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewStreamClient connects to the quote feed endpoint.
func NewStreamClient(ctx context.Context, endpoint string, config *StreamConfig, logger zerolog.Logger) (*StreamClient, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}

	c := &StreamClient{
		endpoint: endpoint,
		config:   cfg,
		logger:   logger.With().Str("component", "marketdata_stream").Logger(),
		agg:      NewBarAggregator(cfg.BarIntervalMs),
		subs:     make(map[string]chan Bar),
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// connect establishes the WebSocket connection.
func (c *StreamClient) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Subscribe returns a channel of completed bars for one symbol and sends
// the subscribe frame upstream. The channel is buffered; bars are dropped
// with a warning if the consumer falls behind.
func (c *StreamClient) Subscribe(symbol string) (<-chan Bar, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("client closed")
	}

	c.subsMu.Lock()
	if _, exists := c.subs[symbol]; exists {
		c.subsMu.Unlock()
		return nil, fmt.Errorf("already subscribed to %s", symbol)
	}
	ch := make(chan Bar, 256)
	c.subs[symbol] = ch
	c.subsMu.Unlock()

	if err := c.writeSubscribe(symbol); err != nil {
		c.subsMu.Lock()
		delete(c.subs, symbol)
		c.subsMu.Unlock()
		return nil, err
	}

	c.logger.Info().Str("symbol", symbol).Msg("subscribed to quote feed")
	return ch, nil
}

func (c *StreamClient) writeSubscribe(symbol string) error {
	req := streamRequest{Action: "subscribe", Symbol: symbol}

	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("not connected")
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	if err := c.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

// Close closes the connection and all subscriber channels, flushing any
// in-progress bars first.
func (c *StreamClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.subsMu.Lock()
	for symbol, ch := range c.subs {
		c.aggMu.Lock()
		if bar := c.agg.Flush(symbol); bar != nil {
			select {
			case ch <- *bar:
			default:
			}
		}
		c.aggMu.Unlock()
		close(ch)
		delete(c.subs, symbol)
	}
	c.subsMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads quote frames and dispatches completed bars.
func (c *StreamClient) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			c.logger.Warn().Err(err).Msg("read failed, reconnecting")
			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect attempts to reconnect and resubscribe.
func (c *StreamClient) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("reconnect failed, will retry")
		return
	}

	// Resubscribe to all active symbols
	c.subsMu.RLock()
	symbols := make([]string, 0, len(c.subs))
	for symbol := range c.subs {
		symbols = append(symbols, symbol)
	}
	c.subsMu.RUnlock()

	for _, symbol := range symbols {
		if err := c.writeSubscribe(symbol); err != nil {
			c.logger.Warn().Err(err).Str("symbol", symbol).Msg("resubscribe failed")
		}
	}

	c.logger.Info().Int("symbols", len(symbols)).Msg("reconnected")
}

// handleMessage parses one quote frame and dispatches a completed bar,
// if folding it closed an interval.
func (c *StreamClient) handleMessage(message []byte) {
	var q Quote
	if err := json.Unmarshal(message, &q); err != nil || q.Symbol == "" {
		return
	}

	c.aggMu.Lock()
	bar := c.agg.Add(q)
	c.aggMu.Unlock()

	if bar == nil {
		return
	}

	c.subsMu.RLock()
	ch, ok := c.subs[bar.Symbol]
	c.subsMu.RUnlock()

	if !ok {
		return
	}

	select {
	case ch <- *bar:
	default:
		c.logger.Warn().Str("symbol", bar.Symbol).Msg("subscriber slow, dropping bar")
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *StreamClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			c.connMu.Unlock()
		}
	}
}

type streamRequest struct {
	Action string `json:"action"`
	Symbol string `json:"symbol"`
}
