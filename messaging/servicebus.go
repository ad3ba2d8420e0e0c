package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// ServiceBusConfig holds Service Bus configuration.
type ServiceBusConfig struct {
	Namespace        string
	ConnectionString string // Optional - if empty, uses managed identity
	Topic            string
}

// Enabled reports whether enough is configured to connect.
func (c ServiceBusConfig) Enabled() bool {
	return c.ConnectionString != "" || c.Namespace != ""
}

// ServiceBusClient wraps the Azure Service Bus client.
type ServiceBusClient struct {
	client *azservicebus.Client
	config ServiceBusConfig
}

// NewServiceBusClient creates a new Service Bus client.
func NewServiceBusClient(config ServiceBusConfig) (*ServiceBusClient, error) {
	var client *azservicebus.Client
	var err error

	if config.ConnectionString != "" {
		client, err = azservicebus.NewClientFromConnectionString(config.ConnectionString, nil)
	} else {
		cred, credErr := azidentity.NewDefaultAzureCredential(nil)
		if credErr != nil {
			return nil, fmt.Errorf("failed to create credential: %w", credErr)
		}
		fullyQualifiedNamespace := fmt.Sprintf("%s.servicebus.windows.net", config.Namespace)
		client, err = azservicebus.NewClient(fullyQualifiedNamespace, cred, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create service bus client: %w", err)
	}

	return &ServiceBusClient{
		client: client,
		config: config,
	}, nil
}

// Close closes the client.
func (c *ServiceBusClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// NewTopicPublisher creates a publisher for the configured topic.
func (c *ServiceBusClient) NewTopicPublisher() (*ServiceBusPublisher, error) {
	if c.config.Topic == "" {
		return nil, errors.New("service bus topic is not configured")
	}
	sender, err := c.client.NewSender(c.config.Topic, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender for topic %s: %w", c.config.Topic, err)
	}
	return NewServiceBusPublisher(sender), nil
}

// MessageSender is the part of *azservicebus.Sender used for publishing.
type MessageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// ServiceBusPublisher publishes events to a Service Bus queue or topic.
type ServiceBusPublisher struct {
	sender MessageSender
}

// NewServiceBusPublisher creates a publisher over a sender.
func NewServiceBusPublisher(sender MessageSender) *ServiceBusPublisher {
	return &ServiceBusPublisher{sender: sender}
}

// Close closes the publisher.
func (p *ServiceBusPublisher) Close(ctx context.Context) error {
	return p.sender.Close(ctx)
}

// Publish sends the event as a JSON message. The event type becomes the
// message subject.
func (p *ServiceBusPublisher) Publish(ctx context.Context, event Event) error {
	opts := []MessageOption{WithSubject(event.Type), WithProperty("event_type", event.Type)}
	if event.CorrelationID != "" {
		opts = append(opts, WithCorrelationID(event.CorrelationID))
	}
	return p.SendJSON(ctx, event.ID, event.Data, opts...)
}

// Send sends a message.
func (p *ServiceBusPublisher) Send(ctx context.Context, msg *Message) error {
	return p.sender.SendMessage(ctx, msg.toServiceBus(), nil)
}

// SendJSON sends a JSON-encoded message.
func (p *ServiceBusPublisher) SendJSON(ctx context.Context, id string, data any, opts ...MessageOption) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := &Message{
		ID:          id,
		Body:        body,
		ContentType: "application/json",
		Properties:  make(map[string]string),
	}

	for _, opt := range opts {
		opt(msg)
	}

	return p.Send(ctx, msg)
}

// Message represents a message to be sent.
type Message struct {
	ID            string
	Body          []byte
	ContentType   string
	CorrelationID string
	Subject       string
	Properties    map[string]string
}

func (m *Message) toServiceBus() *azservicebus.Message {
	sbMsg := &azservicebus.Message{
		Body:      m.Body,
		MessageID: &m.ID,
	}

	if m.ContentType != "" {
		sbMsg.ContentType = &m.ContentType
	}
	if m.CorrelationID != "" {
		sbMsg.CorrelationID = &m.CorrelationID
	}
	if m.Subject != "" {
		sbMsg.Subject = &m.Subject
	}

	if len(m.Properties) > 0 {
		sbMsg.ApplicationProperties = make(map[string]any, len(m.Properties))
		for k, v := range m.Properties {
			sbMsg.ApplicationProperties[k] = v
		}
	}

	return sbMsg
}

// MessageOption configures a message.
type MessageOption func(*Message)

// WithCorrelationID sets the correlation ID.
func WithCorrelationID(id string) MessageOption {
	return func(m *Message) {
		m.CorrelationID = id
	}
}

// WithSubject sets the subject.
func WithSubject(subject string) MessageOption {
	return func(m *Message) {
		m.Subject = subject
	}
}

// WithProperty sets a custom property.
func WithProperty(key, value string) MessageOption {
	return func(m *Message) {
		if m.Properties == nil {
			m.Properties = make(map[string]string)
		}
		m.Properties[key] = value
	}
}
