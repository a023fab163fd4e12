// Package mqtt publishes moderation lifecycle events to an MQTT broker so
// external integrations (dashboards, audit collectors) can follow warnings
// and punishments in real time.
package mqtt

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/GeorToxa/moderatorDiscordBot/internal/moderation"
	"github.com/GeorToxa/moderatorDiscordBot/pkg/logger"
)

// eventTopicPrefix is the topic namespace for lifecycle events. The full
// topic is moderator/events/<guildID>/<eventType>.
const eventTopicPrefix = "moderator/events"

// Publisher maintains the broker connection and publishes moderation events.
// It implements moderation.EventSink.
type Publisher struct {
	client   mqtt.Client
	clientID string
	mu       sync.Mutex
}

var (
	publisher *Publisher
	once      sync.Once
)

// Init initializes the global MQTT publisher
func Init(host, port, username, password, clientID string) *Publisher {
	once.Do(func() {
		publisher = NewPublisher(host, port, username, password, clientID)
	})
	return publisher
}

// Get returns the global MQTT publisher
func Get() *Publisher {
	return publisher
}

// NewPublisher creates a publisher and starts connecting to the broker. The
// connection retries in the background; events published while offline are
// dropped with a warning.
func NewPublisher(host, port, username, password, clientID string) *Publisher {
	p := &Publisher{clientID: clientID}

	uniqueID := fmt.Sprintf("%s_%s", clientID, uuid.New().String())

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID(uniqueID).
		SetUsername(username).
		SetPassword(password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Success(fmt.Sprintf("Conectado al broker MQTT como %s", clientID), "MQTT")
		}).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Error(fmt.Sprintf("Conexión MQTT perdida: %v", err), "MQTT")
		})

	p.client = mqtt.NewClient(opts)

	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		logger.Error(fmt.Sprintf("Error de conexión MQTT: %v", token.Error()), "MQTT")
	}

	return p
}

// Destroy closes the MQTT connection
func (p *Publisher) Destroy() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
		logger.System("Conexión MQTT cerrada exitosamente.", "MQTT")
	} else {
		logger.Warn("El cliente MQTT no estaba conectado, no se necesita cerrar.", "MQTT")
	}
}

// IsConnected returns true if connected to the broker
func (p *Publisher) IsConnected() bool {
	return p.client != nil && p.client.IsConnected()
}

// Publish sends a JSON payload to a topic
func (p *Publisher) Publish(topic string, payload interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := p.client.Publish(topic, 0, false, jsonData)
	token.Wait()
	return token.Error()
}

// PublishModerationEvent implements moderation.EventSink. Delivery is best
// effort: a broker outage must never block or fail a moderation action.
func (p *Publisher) PublishModerationEvent(ev moderation.Event) {
	if !p.IsConnected() {
		logger.Warn(fmt.Sprintf("Broker MQTT desconectado, evento %s descartado", ev.Type), "MQTT")
		return
	}

	topic := fmt.Sprintf("%s/%s/%s", eventTopicPrefix, ev.GuildID, ev.Type)
	if err := p.Publish(topic, ev); err != nil {
		logger.Error(fmt.Sprintf("Error publicando evento %s: %v", ev.Type, err), "MQTT")
	}
}
