package feed

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	gorilla "github.com/gorilla/websocket"

	"smartcheckout/models"
)

const listenPath = "/api/v3/detections/listen"

// Handler receives each inbound snapshot. The snapshot replaces any prior
// one wholesale; handlers must not merge.
type Handler func(products []models.DetectedProduct)

// Consumer owns one websocket subscription to a detector feed for its
// whole lifetime. There is no reconnect: when the connection drops the
// consumer reports the failure upward and stays dead until its owner
// dials a fresh one.
type Consumer struct {
	addr        string
	conn        *gorilla.Conn
	handler     Handler
	onConnError func(bool)

	closeOnce sync.Once
	closing   atomic.Bool
	done      chan struct{}
}

// Dial opens a subscription to the detector at addr (host:port). The
// connectivity callback is invoked with false on success and true on dial
// or mid-session failure. Cancelling ctx tears the subscription down.
func Dial(ctx context.Context, addr string, handler Handler, onConnError func(bool)) (*Consumer, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: listenPath}

	conn, _, err := gorilla.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if onConnError != nil {
			onConnError(true)
		}
		return nil, fmt.Errorf("failed to dial detection feed at %s: %w", addr, err)
	}

	c := &Consumer{
		addr:        addr,
		conn:        conn,
		handler:     handler,
		onConnError: onConnError,
		done:        make(chan struct{}),
	}

	if onConnError != nil {
		onConnError(false)
	}
	log.Infof("Subscribed to detection feed at %s", addr)

	go c.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	return c, nil
}

// Addr returns the feed address this consumer is subscribed to.
func (c *Consumer) Addr() string {
	return c.addr
}

// Done is closed when the subscription has ended for any reason.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

// Alive reports whether the subscription is still open.
func (c *Consumer) Alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

// Close tears the subscription down. It is safe to call more than once;
// the connection is closed exactly once.
func (c *Consumer) Close() {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		deadline := time.Now().Add(time.Second)
		c.conn.WriteControl(gorilla.CloseMessage,
			gorilla.FormatCloseMessage(gorilla.CloseNormalClosure, ""), deadline)
		c.conn.Close()
		log.Infof("Closed detection feed subscription to %s", c.addr)
	})
}

func (c *Consumer) readLoop() {
	defer close(c.done)

	for {
		var msg models.BroadcastMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if !c.closing.Load() {
				log.Errorf("Detection feed read failed: %v", err)
				if c.onConnError != nil {
					c.onConnError(true)
				}
			}
			return
		}

		if msg.Type != models.MessageTypeDetectionUpdate {
			continue
		}
		c.handler(sanitize(msg.Data.Products))
	}
}

// sanitize drops malformed line items. Missing numeric fields decode as
// zero and are kept; negative quantities or prices are rejected so a bad
// payload cannot drive the bill below zero.
func sanitize(products []models.DetectedProduct) []models.DetectedProduct {
	clean := products[:0]
	for _, p := range products {
		if p.Quantity < 0 || p.Price < 0 {
			log.Warnf("Dropping malformed line item %q (quantity=%d, price=%v)", p.Name, p.Quantity, p.Price)
			continue
		}
		clean = append(clean, p)
	}
	return clean
}
