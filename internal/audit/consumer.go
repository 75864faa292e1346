package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gymhub/api/internal/config"
	"gymhub/api/internal/models"
)

// Sink persists consumed audit events.
type Sink interface {
	Append(ctx context.Context, record models.AuditRecord) error
}

// Consumer drains the audit stream into the sink through a consumer group,
// reclaiming entries left pending by a crashed instance.
type Consumer struct {
	client *redis.Client
	cfg    config.AuditConfig
	sink   Sink
	log    zerolog.Logger
}

func NewConsumer(client *redis.Client, cfg config.AuditConfig, sink Sink, log zerolog.Logger) *Consumer {
	return &Consumer{
		client: client,
		cfg:    cfg,
		sink:   sink,
		log:    log,
	}
}

// Start blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(c.cfg.ClaimInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := c.read(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.log.Error().Err(err).Msg("audit stream read error")
				time.Sleep(2 * time.Second)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_ = c.claimStalled(ctx)
		default:
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return err
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func (c *Consumer) read(ctx context.Context) error {
	result, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    10,
		Block:    5 * time.Second,
	}).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	for _, stream := range result {
		for _, msg := range stream.Messages {
			if err := c.handleMessage(ctx, msg); err != nil {
				c.log.Error().
					Err(err).
					Str("message_id", msg.ID).
					Msg("persist audit event failed")
				continue
			}
			if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
				c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack failed")
			}
		}
	}
	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg redis.XMessage) error {
	record, err := decodeMessage(msg)
	if err != nil {
		// Malformed entries are dropped, not retried forever.
		c.log.Warn().Err(err).Str("message_id", msg.ID).Msg("drop malformed audit event")
		return nil
	}
	return c.sink.Append(ctx, record)
}

func decodeMessage(msg redis.XMessage) (models.AuditRecord, error) {
	record := models.AuditRecord{
		ID:        stringValue(msg.Values, "id"),
		TenantID:  stringValue(msg.Values, "tenant_id"),
		AccountID: stringValue(msg.Values, "account_id"),
		Action:    models.AuditAction(stringValue(msg.Values, "action")),
		CreatedAt: time.Now(),
	}
	if record.ID == "" || record.TenantID == "" || record.Action == "" {
		return models.AuditRecord{}, errors.New("audit event missing required fields")
	}

	if raw := stringValue(msg.Values, "metadata"); raw != "" {
		metadata := make(map[string]string)
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return models.AuditRecord{}, err
		}
		record.Metadata = metadata
	}
	return record, nil
}

func stringValue(values map[string]any, key string) string {
	if v, ok := values[key].(string); ok {
		return v
	}
	return ""
}

func (c *Consumer) claimStalled(ctx context.Context) error {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Start:  "-",
		End:    "+",
		Count:  10,
	}).Result()
	if err != nil {
		return err
	}

	for _, entry := range pending {
		if entry.Idle < c.cfg.ClaimInterval {
			continue
		}
		msgs, err := c.client.XClaim(ctx, &redis.XClaimArgs{
			Stream:   c.cfg.Stream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			MinIdle:  c.cfg.ClaimInterval,
			Messages: []string{entry.ID},
		}).Result()
		if err != nil {
			c.log.Error().Err(err).Msg("claim error")
			continue
		}
		for _, msg := range msgs {
			if err := c.handleMessage(ctx, msg); err != nil {
				c.log.Error().Err(err).Str("message_id", msg.ID).Msg("persist claimed audit event failed")
				continue
			}
			if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
				c.log.Error().Err(err).Str("message_id", msg.ID).Msg("ack claimed failed")
			}
		}
	}
	return nil
}
