// Package notify delivers notifications to the display through a message broker.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"invader-notifier/internal/config"
	"invader-notifier/internal/metrics"
	"invader-notifier/internal/observability"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = 5 * time.Second
)

// Broker opens one connection per delivery attempt.
type Broker interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a live broker connection. Close must be safe to call once after
// either a successful or a failed Publish.
type Conn interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close()
}

// Outcome is the final result of a Send.
type Outcome string

const (
	OutcomeSent    Outcome = metrics.ResultSent
	OutcomeFailed  Outcome = metrics.ResultFailed
	OutcomeSkipped Outcome = metrics.ResultSkipped
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Dispatcher struct {
	cfg         config.MQTTConfig
	broker      Broker
	logger      *observability.Logger
	metrics     metrics.Recorder
	sleep       Sleeper
	maxAttempts int
	retryDelay  time.Duration
}

type Option func(*Dispatcher)

// WithSleeper replaces the retry delay timer.
func WithSleeper(s Sleeper) Option {
	return func(d *Dispatcher) {
		d.sleep = s
	}
}

func NewDispatcher(cfg config.MQTTConfig, broker Broker, logger *observability.Logger, rec metrics.Recorder, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		cfg:         cfg,
		broker:      broker,
		logger:      logger.Named("notify"),
		metrics:     rec,
		sleep:       sleepContext,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.GetRetryDelay(),
	}
	if d.maxAttempts <= 0 {
		d.maxAttempts = defaultMaxAttempts
	}
	if d.retryDelay <= 0 {
		d.retryDelay = defaultRetryDelay
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send publishes one notification, retrying failed attempts after a fixed
// delay. Delivery failures are logged and reported in the outcome, never
// returned, so one bad notification does not stop the ones after it.
func (d *Dispatcher) Send(ctx context.Context, text, color string) Outcome {
	payload := NewPayload(text, color)
	outcome := d.send(ctx, payload)
	d.metrics.RecordNotification(string(outcome))
	return outcome
}

func (d *Dispatcher) send(ctx context.Context, payload Payload) Outcome {
	if d.cfg.Host == "" || d.cfg.Port == 0 || d.cfg.Topic == "" {
		d.logger.Warn("MQTT configuration missing. Skipping notification.")
		d.logger.Info("Would have sent notification", "payload", payload)
		return OutcomeSkipped
	}

	body, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("Failed to encode notification", "error", err.Error())
		return OutcomeFailed
	}

	state := StateConnecting
	attempt := 1
	var conn Conn

	for !state.Terminal() {
		switch state {
		case StateConnecting:
			d.metrics.RecordDeliveryAttempt()
			c, err := d.broker.Connect(ctx)
			if err != nil {
				state = d.fail(state, EventConnectFailed, attempt, err)
				continue
			}
			conn = c
			state = Transition(state, EventConnected, attempt, d.maxAttempts)

		case StatePublishing:
			d.logger.Debug("Sending MQTT notification", "topic", d.cfg.Topic, "payload", string(body))
			err := conn.Publish(ctx, d.cfg.Topic, body)
			conn.Close()
			conn = nil
			if err != nil {
				state = d.fail(state, EventPublishFailed, attempt, err)
				continue
			}
			state = Transition(state, EventPublished, attempt, d.maxAttempts)

		case StateFailedRetryable:
			d.logger.Info("Retrying notification", "delay", d.retryDelay.String(), "next_attempt", attempt+1)
			if err := d.sleep(ctx, d.retryDelay); err != nil {
				d.logger.Error("Retry wait interrupted, giving up", "text", payload.Text, "error", err.Error())
				return OutcomeFailed
			}
			attempt++
			state = Transition(state, EventDelayElapsed, attempt, d.maxAttempts)
		}
	}

	if state == StateFailedTerminal {
		d.logger.Error("Notification will be skipped due to persistent MQTT connectivity issues",
			"text", payload.Text,
			"attempts", attempt,
		)
		return OutcomeFailed
	}

	d.logger.Info("Notification sent successfully via MQTT", "text", payload.Text, "attempt", attempt)
	return OutcomeSent
}

func (d *Dispatcher) fail(state State, ev Event, attempt int, err error) State {
	d.logger.Warn("Error sending notification",
		"state", state.String(),
		"attempt", attempt,
		"max_attempts", d.maxAttempts,
		"error", err.Error(),
	)
	return Transition(state, ev, attempt, d.maxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
