package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSClient subscribes to log notifications that mention tracked wallets.
// It is a wake-up signal only: a notification means "poll now", and the
// poller still reads authoritative data over HTTP RPC. Missed notifications
// are therefore harmless.
type WSClient struct {
	endpoint  string
	log       *logrus.Entry
	conn      *websocket.Conn
	mu        sync.Mutex
	requestID atomic.Uint64

	wallets []string
	wake    chan string

	closed chan struct{}
}

// NewWSClient creates a log-subscription client for the given wallets.
// Wake-up notifications carry the wallet address and are delivered on
// Wake(); if the poller is busy the notification is dropped.
func NewWSClient(endpoint string, wallets []string, log *logrus.Entry) *WSClient {
	return &WSClient{
		endpoint: endpoint,
		log:      log.WithField("component", "ws"),
		wallets:  wallets,
		wake:     make(chan string, len(wallets)),
		closed:   make(chan struct{}),
	}
}

// Wake returns the channel carrying wallet addresses with fresh activity.
func (c *WSClient) Wake() <-chan string {
	return c.wake
}

// Run connects, subscribes, and reads notifications until the context is
// cancelled. Connection failures are retried with backoff.
func (c *WSClient) Run(ctx context.Context) {
	defer close(c.closed)

	delay := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		if err := c.connectAndRead(ctx); err != nil {
			c.log.WithError(err).Warn("websocket session ended, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
}

func (c *WSClient) connectAndRead(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer conn.Close()

	subToWallet := make(map[uint64]string, len(c.wallets))
	for _, w := range c.wallets {
		id := c.requestID.Add(1)
		req := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"method":  "logsSubscribe",
			"params": []interface{}{
				map[string]interface{}{"mentions": []string{w}},
				map[string]interface{}{"commitment": "confirmed"},
			},
		}
		if err := conn.WriteJSON(req); err != nil {
			return fmt.Errorf("subscribe %s: %w", w, err)
		}
		subToWallet[id] = w
	}
	c.log.WithField("wallets", len(c.wallets)).Info("log subscriptions requested")

	// Map subscription IDs back to wallets as confirmations arrive, then
	// translate notifications into wake-ups.
	walletBySub := make(map[uint64]string)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Debug("unparseable websocket message")
			continue
		}

		switch {
		case msg.ID != 0:
			var subID uint64
			if err := json.Unmarshal(msg.Result, &subID); err == nil {
				if w, ok := subToWallet[msg.ID]; ok {
					walletBySub[subID] = w
				}
			}
		case msg.Method == "logsNotification":
			var p wsNotificationParams
			if err := json.Unmarshal(msg.Params, &p); err != nil {
				continue
			}
			w, ok := walletBySub[p.Subscription]
			if !ok {
				continue
			}
			select {
			case c.wake <- w:
			default:
			}
		}
	}
}

type wsMessage struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Result json.RawMessage `json:"result"`
	Params json.RawMessage `json:"params"`
}

type wsNotificationParams struct {
	Subscription uint64 `json:"subscription"`
}
