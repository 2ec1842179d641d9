package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/campus-connect/relay/src/types"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const publishTimeout = 2 * time.Second

// redisEnvelope wraps a message with the originating instance ID so that
// consumers can tell relay processes apart.
type redisEnvelope struct {
	InstanceID string            `json:"instance_id"`
	Message    types.ChatMessage `json:"message"`
}

// RedisBridge publishes every stored message on a per-room Redis channel.
// Publishing happens on its own goroutine so the hub loop never waits on Redis.
type RedisBridge struct {
	client     *redis.Client
	prefix     string
	instanceID string
	queue      chan types.ChatMessage
	drops      DropCounter
	logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

// NewRedisBridge creates a mirror that publishes through Redis pub/sub.
func NewRedisBridge(cfg *RedisConfig, drops DropCounter, logger zerolog.Logger) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithCancel(context.Background())

	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultRedisConfig().QueueSize
	}
	return &RedisBridge{
		client:     client,
		prefix:     cfg.Prefix,
		instanceID: uuid.New().String(),
		queue:      make(chan types.ChatMessage, size),
		drops:      drops,
		logger:     logger.With().Str("component", "redis-mirror").Logger(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start verifies connectivity and begins publishing queued messages.
func (b *RedisBridge) Start() error {
	pingCtx, cancel := context.WithTimeout(b.ctx, publishTimeout)
	defer cancel()
	if err := b.client.Ping(pingCtx).Err(); err != nil {
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.publishLoop()

	b.logger.Info().
		Str("instance_id", b.instanceID).
		Str("prefix", b.prefix).
		Msg("redis mirror started")
	return nil
}

// Mirror queues msg for publication, dropping it if the mirror is down or
// its queue is full.
func (b *RedisBridge) Mirror(msg types.ChatMessage) {
	if !b.Available() {
		return
	}
	select {
	case b.queue <- msg:
	default:
		if b.drops != nil {
			b.drops.MirrorDropped()
		}
		b.logger.Warn().Str("room", msg.RoomID).Str("message_id", msg.ID).Msg("mirror queue full, dropping")
	}
}

// Stop stops publishing and closes the Redis connection.
func (b *RedisBridge) Stop() error {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

// Available reports whether the mirror is connected.
func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// Channel returns the Redis channel used for roomID.
func (b *RedisBridge) Channel(roomID string) string {
	return b.prefix + "room:" + roomID
}

func (b *RedisBridge) publishLoop() {
	defer b.wg.Done()
	for {
		select {
		case msg := <-b.queue:
			if err := b.publish(msg); err != nil {
				b.logger.Error().Err(err).Str("room", msg.RoomID).Msg("mirror publish failed")
			}
		case <-b.ctx.Done():
			return
		}
	}
}

func (b *RedisBridge) publish(msg types.ChatMessage) error {
	data, err := encodeEnvelope(b.instanceID, msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(b.ctx, publishTimeout)
	defer cancel()
	return b.client.Publish(ctx, b.Channel(msg.RoomID), data).Err()
}

func encodeEnvelope(instanceID string, msg types.ChatMessage) ([]byte, error) {
	return json.Marshal(redisEnvelope{InstanceID: instanceID, Message: msg})
}
