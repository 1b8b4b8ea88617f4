package mqtt

import (
	"fmt"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/cabin-monitor/internal/device"
)

const (
	clientIDPrefix = "cabin-monitor"
	bufferCapacity = 256
	publishTimeout = 5 * time.Second
)

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    *zap.Logger

	mu       sync.Mutex
	buf      *outbox
	handler  CommandHandler
	clientID string
}

// NewRealPublisher creates a publisher connected to the given broker.
// The client id carries a random suffix so two monitors on one broker
// never kick each other off.
func NewRealPublisher(broker string, log *zap.Logger) (*RealPublisher, error) {
	p := &RealPublisher{
		log:      log,
		buf:      newOutbox(bufferCapacity),
		clientID: clientIDPrefix + "-" + uuid.NewString()[:8],
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(p.clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetKeepAlive(10 * time.Second).
		SetOrderMatters(false).
		SetWill(TopicSystem, string(FormatWillPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn("mqtt connection lost", zap.Error(err))
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// SetConnectRetry keeps trying in the background; messages buffer meanwhile.
		log.Warn("mqtt connect timeout, continuing in background", zap.String("broker", broker))
		return p, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// ClientID returns the id this publisher registered with.
func (p *RealPublisher) ClientID() string {
	return p.clientID
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	handler := p.handler
	p.mu.Unlock()

	p.log.Info("mqtt connected", zap.Int("replay", len(pending)))

	for _, msg := range pending {
		token := c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
		if !token.WaitTimeout(publishTimeout) || token.Error() != nil {
			p.log.Warn("mqtt replay failed", zap.String("topic", msg.topic), zap.Error(token.Error()))
		}
	}

	if handler != nil {
		if err := p.subscribe(c, handler); err != nil {
			p.log.Error("restore command subscription", zap.Error(err))
		}
	}
}

// Subscribe registers handler for payloads on TopicCommand. The subscription
// is restored after every reconnect.
func (p *RealPublisher) Subscribe(handler CommandHandler) error {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()

	if !p.client.IsConnectionOpen() {
		return nil
	}
	return p.subscribe(p.client, handler)
}

func (p *RealPublisher) subscribe(c paho.Client, handler CommandHandler) error {
	token := c.Subscribe(TopicCommand, 1, func(_ paho.Client, msg paho.Message) {
		t := strings.TrimSpace(string(msg.Payload()))
		if t == "" {
			return
		}
		handler(t)
	})
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe %s: timeout", TopicCommand)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicCommand, err)
	}
	return nil
}

// Publish sends a state change to the MQTT broker.
func (p *RealPublisher) Publish(change device.Change) error {
	payload, err := FormatPayload(change)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(pendingMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.send(pendingMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(msg pendingMsg) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		if p.buf.push(msg) {
			p.log.Warn("mqtt outbox full, dropping oldest change", zap.Int("capacity", bufferCapacity))
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
