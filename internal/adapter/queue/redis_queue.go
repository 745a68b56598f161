package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"warehousesim/internal/port"
)

const (
	bodyField     = "body"
	blockInterval = 5 * time.Second
)

// RedisQueue maps each named queue to a Redis stream consumed through
// a consumer group: deliveries stay pending until acknowledged, which
// gives the at-least-once contract the transport boundary assumes.
type RedisQueue struct {
	client   *redis.Client
	group    string
	consumer string
}

func NewRedisQueue(client *redis.Client, group string) *RedisQueue {
	return &RedisQueue{
		client:   client,
		group:    group,
		consumer: group + "-" + uuid.New().String(),
	}
}

func (q *RedisQueue) Declare(ctx context.Context, queue string) error {
	err := q.client.XGroupCreateMkStream(ctx, queue, q.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("declare %s: %w", queue, err)
	}
	return nil
}

func (q *RedisQueue) Send(ctx context.Context, queue string, body []byte) error {
	err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: queue,
		Values: map[string]interface{}{bodyField: body},
	}).Err()
	if err != nil {
		return fmt.Errorf("send to %s: %w", queue, err)
	}
	return nil
}

// Receive blocks until a new entry is available. Entries without a
// body field surface with an empty payload so callers can drop and ack
// them like any other malformed message.
func (q *RedisQueue) Receive(ctx context.Context, queue string) (port.Message, error) {
	for {
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumer,
			Streams:  []string{queue, ">"},
			Count:    1,
			Block:    blockInterval,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return port.Message{}, fmt.Errorf("receive from %s: %w", queue, err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				body, _ := msg.Values[bodyField].(string)
				return port.Message{ID: msg.ID, Body: []byte(body)}, nil
			}
		}
	}
}

func (q *RedisQueue) Ack(ctx context.Context, queue string, id string) error {
	if err := q.client.XAck(ctx, queue, q.group, id).Err(); err != nil {
		return fmt.Errorf("ack %s on %s: %w", id, queue, err)
	}
	return nil
}
