package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"invader-notifier/internal/config"
	"invader-notifier/internal/observability"
)

// ErrTimeout is returned when the broker does not answer in time.
var ErrTimeout = errors.New("mqtt operation timed out")

// MQTTBroker connects to the display's MQTT broker over TCP.
type MQTTBroker struct {
	cfg    config.MQTTConfig
	logger *observability.Logger
}

func NewMQTTBroker(cfg config.MQTTConfig, logger *observability.Logger) *MQTTBroker {
	return &MQTTBroker{
		cfg:    cfg,
		logger: logger.Named("mqtt"),
	}
}

func (b *MQTTBroker) brokerURL() string {
	return "tcp://" + net.JoinHostPort(b.cfg.Host, strconv.Itoa(b.cfg.Port))
}

// Connect opens a new client session. The client is disconnected again if the
// connection does not come up.
func (b *MQTTBroker) Connect(ctx context.Context) (Conn, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(b.brokerURL()).
		SetClientID(ClientName + "-" + uuid.NewString()[:8]).
		SetUsername(b.cfg.Username).
		SetPassword(b.cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetConnectTimeout(b.cfg.GetConnectTimeout())

	client := mqtt.NewClient(opts)
	if err := waitToken(ctx, client.Connect(), b.cfg.GetConnectTimeout()); err != nil {
		client.Disconnect(0)
		return nil, fmt.Errorf("connect to %s: %w", b.brokerURL(), err)
	}

	b.logger.Debug("Connected to broker", "broker", b.brokerURL())
	return &mqttConn{
		client:         client,
		qos:            byte(b.cfg.QoS),
		publishTimeout: b.cfg.GetPublishTimeout(),
	}, nil
}

type mqttConn struct {
	client         mqtt.Client
	qos            byte
	publishTimeout time.Duration
}

func (c *mqttConn) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := waitToken(ctx, c.client.Publish(topic, c.qos, false, payload), c.publishTimeout); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close waits briefly for in-flight work before dropping the session.
func (c *mqttConn) Close() {
	c.client.Disconnect(250)
}

func waitToken(ctx context.Context, token mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
