package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// envelope tags a message with the instance that sent it so an instance
// does not deliver its own events twice.
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// RedisBridge shares events between server instances over a Redis channel.
// Local subscribers are served straight from the hub.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	origin  string
}

func NewRedisBridge(addr string, password string, db int, channel string, hub *Hub) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisBridge{client: client, channel: channel, hub: hub, origin: uuid.NewString()}
}

func (b *RedisBridge) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBridge) Close() error {
	return b.client.Close()
}

// NotifyNextInvoice delivers locally, then tells the other instances.
func (b *RedisBridge) NotifyNextInvoice(ctx context.Context, code string) error {
	return b.Publish(ctx, NextInvoiceEvent(code))
}

func (b *RedisBridge) Publish(ctx context.Context, ev Event) error {
	b.hub.Publish(ev)

	payload, err := json.Marshal(envelope{Origin: b.origin, Event: ev})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

// Run relays events published by other instances into the local hub until
// ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			b.relay(msg.Payload)
		}
	}
}

func (b *RedisBridge) relay(payload string) bool {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("realtime: dropping malformed message: %v", err)
		return false
	}
	if env.Origin == b.origin || env.Event.Name == "" {
		return false
	}
	b.hub.Publish(env.Event)
	return true
}
