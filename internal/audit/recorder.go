package audit

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gymhub/api/internal/ids"
	"gymhub/api/internal/models"
)

// Recorder publishes audit events to a Redis stream. Publishing is
// best-effort: a failed write is logged and dropped, never surfaced to the
// operation being audited.
type Recorder struct {
	client *redis.Client
	stream string
	log    zerolog.Logger
}

func NewRecorder(client *redis.Client, stream string, log zerolog.Logger) *Recorder {
	return &Recorder{
		client: client,
		stream: stream,
		log:    log,
	}
}

func (r *Recorder) Record(ctx context.Context, tenantID, accountID string, action models.AuditAction, metadata map[string]string) {
	if r == nil || r.client == nil {
		return
	}

	values := map[string]any{
		"id":         ids.New(),
		"tenant_id":  tenantID,
		"account_id": accountID,
		"action":     string(action),
	}
	if len(metadata) > 0 {
		encoded, err := json.Marshal(metadata)
		if err != nil {
			r.log.Warn().Err(err).Str("action", string(action)).Msg("audit metadata encode failed")
		} else {
			values["metadata"] = string(encoded)
		}
	}

	if err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: values,
	}).Err(); err != nil {
		r.log.Warn().
			Err(err).
			Str("action", string(action)).
			Str("tenant_id", tenantID).
			Msg("audit publish failed")
	}
}
