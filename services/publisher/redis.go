package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"math/rand"

	"github.com/redis/go-redis/v9"

	"quizharvester/internal/scraper"
)

// RedisPublisher implements Publisher over sharded Redis streams.
type RedisPublisher struct {
	client          *redis.Client
	ctx             context.Context
	streamPrefix    string
	streamCount     int
	streamMaxLength int
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, streamPrefix string, streamCount int, streamMaxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:          client,
		ctx:             ctx,
		streamPrefix:    streamPrefix,
		streamCount:     streamCount,
		streamMaxLength: streamMaxLength,
	}
}

// PublishRecords publishes each record as a base64-encoded JSON entry keyed
// by the record Key, spread across the sharded streams.
func (p *RedisPublisher) PublishRecords(records []scraper.QuestionRecord) error {
	for _, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if err := p.publish(record.Key, payload); err != nil {
			return err
		}
	}
	return nil
}

func (p *RedisPublisher) publish(key string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)

	// random stream name by streamCount
	// if streamCount is 10, stream name will be questions:0 ~ questions:9
	stream := p.streamPrefix + ":" + strconv.Itoa(rand.Intn(p.streamCount))

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			key: encodedMessage,
		},
	}).Err()
}

// TrimStreams trims all streams to the configured maximum length
func (p *RedisPublisher) TrimStreams() error {
	pattern := p.streamPrefix + ":*"
	streams, err := p.client.Keys(p.ctx, pattern).Result()
	if err != nil {
		return err
	}

	for _, stream := range streams {
		err := p.client.XTrimMaxLen(p.ctx, stream, int64(p.streamMaxLength)).Err()
		if err != nil {
			return err
		}
	}

	return nil
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
