package main

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"warehousesim/internal/adapter/queue"
	"warehousesim/internal/core/domain"
)

const (
	redisAddr   = "localhost:6379"
	orderQueue  = "order_queue"
	group       = "warehouse"
	totalOrders = 0 // 0 keeps generating until interrupted
	minQuantity = 100
	maxQuantity = 500
)

var itemCodes = []string{"001", "002", "003"}

func main() {
	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	mq := queue.NewRedisQueue(rdb, group)
	if err := mq.Declare(ctx, orderQueue); err != nil {
		log.Fatalf("failed to declare queue: %v", err)
	}

	for index := 1; totalOrders == 0 || index <= totalOrders; index++ {
		order := domain.Order{
			Index:    index,
			Code:     itemCodes[rand.Intn(len(itemCodes))],
			Quantity: minQuantity + rand.Intn(maxQuantity-minQuantity),
			Kind:     domain.OrderKindSupply,
		}
		if rand.Intn(2) == 0 {
			order.Kind = domain.OrderKindOffload
		}

		body, err := order.Encode()
		if err != nil {
			log.Fatalf("failed to encode order: %v", err)
		}
		if err := mq.Send(ctx, orderQueue, body); err != nil {
			log.Printf("failed to send order %d: %v", order.Index, err)
		} else {
			log.Printf("sent %s order %d: %d boxes of %s",
				order.Kind, order.Index, order.Quantity, order.Code)
		}

		time.Sleep(time.Duration(2+rand.Intn(3)) * time.Second)
	}
}
