package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/coworking-reservation/internal/logger"
)

// AuditLog appends one human-friendly line per event to a file.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog returns an audit log writing to path.  The directory is
// created on first write.
func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Path returns the file the log appends to.
func (a *AuditLog) Path() string { return a.path }

// Append writes ev as a single line.
func (a *AuditLog) Append(ev ReservationEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("mkdir audit dir: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as it appears in the audit log, newline
// included.
func FormatAuditLine(ev ReservationEvent) string {
	return fmt.Sprintf("[%s] %s | folio=%d | event=%q | client=%s | room=%s | date=%s | shift=%s | status=%s\n",
		ev.OccurredAt, ev.Type, ev.Folio, ev.EventName, ev.ClientID, ev.RoomID, ev.Date, ev.Shift, ev.Status)
}

// Consumer drains the reservation.events queue into an AuditLog.
type Consumer struct {
	url   string
	audit *AuditLog
	log   *logger.Logger
}

// NewConsumer returns a consumer for the broker at url.
func NewConsumer(url string, audit *AuditLog, log *logger.Logger) *Consumer {
	return &Consumer{url: url, audit: audit, log: log}
}

// Run connects to the broker, declares the durable queue and consumes
// until ctx is cancelled.  A lost connection is re-dialled with
// exponential backoff capped at 30s.  Malformed messages are rejected
// without requeue so the loop never spins on them.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("audit-consumer: failed to dial broker", logger.Error(err), logger.Duration(backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("audit-consumer: consume loop ended; reconnecting", logger.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("audit-consumer: set QoS failed", logger.Error(err))
	}
	if err := declareQueue(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(ReservationEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.log.Info("audit-consumer: consuming", logger.Queue(ReservationEventsQueue))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				c.log.Error("audit-consumer: handle message failed", logger.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.Folio <= 0 {
		return fmt.Errorf("incomplete event: type=%q folio=%d", ev.Type, ev.Folio)
	}
	return c.audit.Append(ev)
}

// sleep waits for d or until ctx is done, reporting whether the full
// duration elapsed.
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
