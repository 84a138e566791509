package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Producer struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewProducer(client *redis.Client, stream string) *Producer {
	return &Producer{client: client, stream: stream, maxLen: 10000}
}

// Enqueue appends a task to the stream and returns its entry id.
func (p *Producer) Enqueue(ctx context.Context, taskType string, payload any) (string, error) {
	values, err := encodeValues(taskType, payload)
	if err != nil {
		return "", err
	}
	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}
