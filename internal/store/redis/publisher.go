// Package redis publishes the bot's live state to Redis: the latest
// snapshot under a key, and every snapshot on a PubSub channel for
// dashboard subscribers.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultStateTTL     = 10 * time.Minute
	defaultMaxFailures  = 5
	defaultResetTimeout = 30 * time.Second
)

// PublisherConfig configures the Redis state publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	Key     string        // latest-state key
	Channel string        // PubSub channel
	TTL     time.Duration // expiry of the latest-state key; 0 uses the default
}

// Publisher writes state snapshots to Redis behind a circuit breaker.
type Publisher struct {
	client  *goredis.Client
	cb      *CircuitBreaker
	key     string
	channel string
	ttl     time.Duration
}

// New creates a Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *goredis.Client, cfg PublisherConfig) *Publisher {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	cb := NewCircuitBreaker(defaultMaxFailures, defaultResetTimeout)
	cb.OnStateChange = func(from, to State) {
		log.Printf("[redis] circuit breaker %s -> %s", from, to)
	}
	return &Publisher{
		client:  client,
		cb:      cb,
		key:     cfg.Key,
		channel: cfg.Channel,
		ttl:     ttl,
	}
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// Name identifies the publisher in error logs and metrics.
func (p *Publisher) Name() string { return "redis" }

// Breaker exposes the circuit breaker for health reporting.
func (p *Publisher) Breaker() *CircuitBreaker { return p.cb }

// PublishState overwrites the latest-state key and publishes the snapshot.
func (p *Publisher) PublishState(ctx context.Context, state model.BotState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	return p.cb.Execute(func() error {
		pipe := p.client.TxPipeline()
		pipe.Set(ctx, p.key, data, p.ttl)
		if p.channel != "" {
			pipe.Publish(ctx, p.channel, data)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
}

// LatestState reads the last published snapshot. ok is false when none
// has been published or it expired.
func (p *Publisher) LatestState(ctx context.Context) (state model.BotState, ok bool, err error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return state, false, nil
	}
	if err != nil {
		return state, false, err
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return state, false, fmt.Errorf("unmarshal state: %w", err)
	}
	return state, true, nil
}

// Ping checks the connection.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
