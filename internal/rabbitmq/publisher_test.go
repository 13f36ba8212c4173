package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func TestPublishMessage(t *testing.T) {
	t.Run("publishes persistent json", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", "ex", "key", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
			return p.ContentType == "application/json" &&
				p.DeliveryMode == amqp.Persistent &&
				string(p.Body) == `{"id":1}`
		})).Return(nil)

		require.NoError(t, PublishMessage(ch, "ex", "key", map[string]int{"id": 1}))
		ch.AssertExpectations(t)
	})

	t.Run("marshal error", func(t *testing.T) {
		ch := new(MockChannel)
		err := PublishMessage(ch, "ex", "key", struct {
			Ch chan int `json:"ch"`
		}{Ch: make(chan int)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rabbitmq.PublishMessage")
		ch.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("broker error", func(t *testing.T) {
		ch := new(MockChannel)
		ch.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("channel closed"))
		err := PublishMessage(ch, "ex", "key", 1)
		assert.ErrorContains(t, err, "channel closed")
	})
}

func TestPublisher_PublishExport(t *testing.T) {
	event := models.ExportEvent{
		UserID:      "u-1",
		Email:       "u@example.com",
		ProjectID:   "p-1",
		ProjectName: "Poster",
		Format:      "png",
		URL:         "https://cdn.example.com/exports/x.png",
		ExportedAt:  time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	ch := new(MockChannel)
	ch.On("Publish", "content-generator.exports", ExportCompletedKey, false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
		var got models.ExportEvent
		return json.Unmarshal(p.Body, &got) == nil &&
			got.ProjectID == event.ProjectID && got.URL == event.URL && got.ExportedAt.Equal(event.ExportedAt)
	})).Return(nil)

	p := NewPublisher(ch, "content-generator.exports")
	require.NoError(t, p.PublishExport(context.Background(), event))
	ch.AssertExpectations(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.PublishExport(ctx, event), context.Canceled)
}

func TestExportQueues(t *testing.T) {
	queues := ExportQueues()
	require.Len(t, queues, 1)
	assert.Equal(t, ExportNotificationsQueue, queues[0].QueueName)
	assert.Equal(t, ExportCompletedKey, queues[0].RoutingKey)
}
