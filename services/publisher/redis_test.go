package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"quizharvester/internal/classify"
	"quizharvester/internal/scraper"
)

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	publisher := NewRedisPublisher(ctx, "localhost:6379", 0, "test_questions", 1, 100)
	defer publisher.Close()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   0,
	})
	defer client.Close()

	// Test if Redis is available
	_, err := client.Ping(ctx).Result()
	if err != nil {
		t.Skip("Redis is not available, skipping test")
	}

	record := scraper.QuestionRecord{
		Key:           "Question_MQ_Parsed_History_Normal_0001",
		Type:          classify.TypeMultipleChoice,
		Question:      "What is the capital of France?",
		Options:       []string{"Paris", "London", "Berlin", "Madrid"},
		CorrectAnswer: "Paris",
	}

	client.Del(ctx, "test_questions:0")

	err = publisher.PublishRecords([]scraper.QuestionRecord{record})
	assert.NoError(t, err)

	messages, err := client.XRead(ctx, &redis.XReadArgs{
		Streams: []string{"test_questions:0", "0"},
		Block:   time.Second,
	}).Result()
	assert.NoError(t, err)
	assert.Len(t, messages, 1)

	encoded, ok := messages[0].Messages[0].Values[record.Key].(string)
	assert.True(t, ok)

	payload, err := base64.StdEncoding.DecodeString(encoded)
	assert.NoError(t, err)

	var decoded scraper.QuestionRecord
	assert.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, record.Key, decoded.Key)
	assert.Equal(t, "Paris", decoded.CorrectAnswer)

	client.Del(ctx, "test_questions:0")
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishRecords(nil))
	assert.NoError(t, p.TrimStreams())
	assert.NoError(t, p.Close())
}
