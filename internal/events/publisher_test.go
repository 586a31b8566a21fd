package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/price-intel-scraper/internal/models"
)

type fakeRedis struct {
	args *redis.XAddArgs
	err  error
}

func (f *fakeRedis) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	f.args = args
	if f.err != nil {
		cmd := redis.NewStringCmd(ctx)
		cmd.SetErr(f.err)
		return cmd
	}
	return redis.NewStringResult("1693400000000-0", nil)
}

func testSummary() models.RunSummary {
	return models.RunSummary{
		RunID:     "run-123",
		Query:     "iphone 15",
		Platforms: []string{"Amazon", "Flipkart"},
		Records:   7,
		StartedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		Duration:  12 * time.Second,
	}
}

func TestPublishRunCompleted(t *testing.T) {
	client := &fakeRedis{}
	p := NewPublisher(client, nil)

	delivery := &models.DeliveryReport{Sent: 6, Failed: 1}
	require.NoError(t, p.PublishRunCompleted(context.Background(), testSummary(), delivery))

	require.NotNil(t, client.args)
	assert.Equal(t, StreamName, client.args.Stream)

	values, ok := client.args.Values.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, EventTypeRunCompleted, values["event_type"])
	assert.NotEmpty(t, values["event_id"])

	var payload RunCompletedPayload
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	assert.Equal(t, values["event_id"], payload.EventID)
	assert.Equal(t, "run-123", payload.Summary.RunID)
	assert.Equal(t, 7, payload.Summary.Records)
	require.NotNil(t, payload.Delivery)
	assert.Equal(t, 6, payload.Delivery.Sent)
}

func TestPublishRunCompletedWithoutDelivery(t *testing.T) {
	client := &fakeRedis{}
	p := NewPublisher(client, nil)

	require.NoError(t, p.PublishRunCompleted(context.Background(), testSummary(), nil))

	values := client.args.Values.(map[string]interface{})
	var payload RunCompletedPayload
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &payload))
	assert.Nil(t, payload.Delivery)
}

func TestPublishRunCompletedRedisError(t *testing.T) {
	client := &fakeRedis{err: errors.New("stream full")}
	p := NewPublisher(client, nil)

	err := p.PublishRunCompleted(context.Background(), testSummary(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish event")
}
