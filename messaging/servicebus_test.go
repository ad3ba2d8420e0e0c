package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcio/emissions/telemetry"
)

type fakeSender struct {
	sent   []*azservicebus.Message
	err    error
	closed bool
}

func (f *fakeSender) SendMessage(_ context.Context, msg *azservicebus.Message, _ *azservicebus.SendMessageOptions) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) Close(context.Context) error {
	f.closed = true
	return nil
}

var _ MessageSender = (*azservicebus.Sender)(nil)

func TestServiceBusConfig_Enabled(t *testing.T) {
	assert.False(t, ServiceBusConfig{}.Enabled())
	assert.True(t, ServiceBusConfig{Namespace: "emissions"}.Enabled())
	assert.True(t, ServiceBusConfig{ConnectionString: "Endpoint=sb://x/"}.Enabled())
}

func TestServiceBusPublisher_Publish(t *testing.T) {
	sender := &fakeSender{}
	p := NewServiceBusPublisher(sender)

	event := NewEvent(EventEmissionRecorded, map[string]string{"vehicle": "car-flex"})
	event.CorrelationID = "req-1"

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	require.NotNil(t, msg.MessageID)
	assert.Equal(t, event.ID, *msg.MessageID)
	require.NotNil(t, msg.Subject)
	assert.Equal(t, EventEmissionRecorded, *msg.Subject)
	require.NotNil(t, msg.CorrelationID)
	assert.Equal(t, "req-1", *msg.CorrelationID)
	require.NotNil(t, msg.ContentType)
	assert.Equal(t, "application/json", *msg.ContentType)
	assert.Equal(t, EventEmissionRecorded, msg.ApplicationProperties["event_type"])

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Body, &body))
	assert.Equal(t, "car-flex", body["vehicle"])
}

func TestServiceBusPublisher_NoCorrelationID(t *testing.T) {
	sender := &fakeSender{}
	p := NewServiceBusPublisher(sender)

	require.NoError(t, p.Publish(context.Background(), NewEvent(EventEmissionRecorded, 1)))
	assert.Nil(t, sender.sent[0].CorrelationID)
}

func TestServiceBusPublisher_SendError(t *testing.T) {
	sender := &fakeSender{err: errors.New("link detached")}
	p := NewServiceBusPublisher(sender)

	err := p.Publish(context.Background(), NewEvent(EventEmissionRecorded, 1))
	assert.EqualError(t, err, "link detached")
}

func TestServiceBusPublisher_MarshalError(t *testing.T) {
	sender := &fakeSender{}
	p := NewServiceBusPublisher(sender)

	err := p.SendJSON(context.Background(), "id", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal message")
	assert.Empty(t, sender.sent)
}

func TestServiceBusPublisher_Close(t *testing.T) {
	sender := &fakeSender{}
	require.NoError(t, NewServiceBusPublisher(sender).Close(context.Background()))
	assert.True(t, sender.closed)
}

func TestMessageOptions(t *testing.T) {
	msg := &Message{}
	for _, opt := range []MessageOption{
		WithCorrelationID("corr"),
		WithSubject("subject"),
		WithProperty("k", "v"),
	} {
		opt(msg)
	}

	assert.Equal(t, "corr", msg.CorrelationID)
	assert.Equal(t, "subject", msg.Subject)
	assert.Equal(t, map[string]string{"k": "v"}, msg.Properties)
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(EventEmissionRecorded, nil)
	b := NewEvent(EventEmissionRecorded, nil)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), NewEvent(EventEmissionRecorded, nil)))
	assert.NoError(t, p.Close(context.Background()))
}

func TestTracedPublisher(t *testing.T) {
	sender := &fakeSender{}
	p := NewTracedPublisher(NewServiceBusPublisher(sender), telemetry.NewNop().Tracer, "servicebus", "emissions")

	require.NoError(t, p.Publish(context.Background(), NewEvent(EventEmissionRecorded, 1)))
	assert.Len(t, sender.sent, 1)

	sender.err = errors.New("throttled")
	assert.EqualError(t, p.Publish(context.Background(), NewEvent(EventEmissionRecorded, 1)), "throttled")

	require.NoError(t, p.Close(context.Background()))
	assert.True(t, sender.closed)
}
