package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrDelivery wraps every failure to hand a message to the mail transport.
var ErrDelivery = errors.New("email delivery failed")

// Sender delivers a plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Dispatcher sends mail on background goroutines so callers never wait on SMTP.
// Failures are logged and otherwise dropped.
type Dispatcher struct {
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger
	onFail  func()
	wg      sync.WaitGroup
}

func NewDispatcher(sender Sender, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Dispatcher{sender: sender, timeout: timeout, logger: logger.Named("mailer")}
}

// OnFailure registers a hook run after each failed delivery.
func (d *Dispatcher) OnFailure(fn func()) {
	d.onFail = fn
}

// Dispatch queues msg for delivery and returns immediately.
func (d *Dispatcher) Dispatch(to string, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.sender.Send(ctx, to, msg.Subject, msg.Body); err != nil {
			d.logger.Error("send email", zap.String("to", to), zap.String("subject", msg.Subject), zap.Error(err))
			if d.onFail != nil {
				d.onFail()
			}
			return
		}
		d.logger.Debug("email sent", zap.String("to", to), zap.String("subject", msg.Subject))
	}()
}

// Wait blocks until every dispatched message has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// LogSender writes messages to the log instead of sending them. It is used when
// SMTP is not configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("mail_log")}
}

func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("%w: no recipient", ErrDelivery)
	}
	s.logger.Info("email (not sent, SMTP disabled)",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	// the body carries live one-time tokens
	s.logger.Debug("email body", zap.String("to", to), zap.String("body", body))
	return nil
}
