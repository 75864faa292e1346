package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"gymhub/api/internal/config"
	"gymhub/api/internal/models"
	"gymhub/api/internal/ratelimit"
	"gymhub/api/internal/repository"
	"gymhub/api/internal/storage"
)

const archiveBatchSize = 500

// Scheduler runs the retention jobs: nightly audit archival to the object
// store and hourly pruning of stale in-memory rate-limit windows.
type Scheduler struct {
	cron       *cron.Cron
	audit      *repository.AuditRepository
	store      *storage.ObjectStore
	memLimiter *ratelimit.MemoryLimiter
	cfg        *config.AppConfig
	log        zerolog.Logger
}

func NewScheduler(
	audit *repository.AuditRepository,
	store *storage.ObjectStore,
	memLimiter *ratelimit.MemoryLimiter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:       c,
		audit:      audit,
		store:      store,
		memLimiter: memLimiter,
		cfg:        cfg,
		log:        log,
	}
}

func (s *Scheduler) Start() error {
	if s.store != nil {
		if _, err := s.cron.AddFunc("0 30 3 * * *", s.archiveAudit); err != nil {
			return err
		}
	}
	if s.memLimiter != nil {
		if _, err := s.cron.AddFunc("0 0 */1 * * *", s.sweepLimiter); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish, up to a grace period.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

// archiveAudit moves audit rows past the retention window into the object
// store, one JSON object per tenant per batch, then prunes them. Rows are
// only deleted after their archive upload succeeded.
func (s *Scheduler) archiveAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -s.cfg.Audit.RetentionDays)

	for {
		records, err := s.audit.ListOlderThan(ctx, cutoff, archiveBatchSize)
		if err != nil {
			s.log.Error().Err(err).Msg("audit archive: list failed")
			return
		}
		if len(records) == 0 {
			return
		}

		byTenant := make(map[string][]models.AuditRecord)
		for _, record := range records {
			byTenant[record.TenantID] = append(byTenant[record.TenantID], record)
		}

		stamp := time.Now().UTC().Format("20060102T150405")
		var archived []string
		for tenantID, tenantRecords := range byTenant {
			payload, err := json.Marshal(tenantRecords)
			if err != nil {
				s.log.Error().Err(err).Str("tenant_id", tenantID).Msg("audit archive: encode failed")
				continue
			}
			name := fmt.Sprintf("%s/%s.json", tenantID, stamp)
			if err := s.store.PutAuditArchive(ctx, name, payload); err != nil {
				s.log.Error().Err(err).Str("tenant_id", tenantID).Msg("audit archive: upload failed")
				continue
			}
			for _, record := range tenantRecords {
				archived = append(archived, record.ID)
			}
		}

		if len(archived) == 0 {
			return
		}
		if err := s.audit.DeleteByIDs(ctx, archived); err != nil {
			s.log.Error().Err(err).Msg("audit archive: prune failed")
			return
		}
		s.log.Info().Int("records", len(archived)).Msg("audit records archived")

		if len(records) < archiveBatchSize {
			return
		}
	}
}

func (s *Scheduler) sweepLimiter() {
	window := s.cfg.RateLimit.LoginWindow
	if s.cfg.RateLimit.RegisterWindow > window {
		window = s.cfg.RateLimit.RegisterWindow
	}
	removed := s.memLimiter.Sweep(time.Now(), window)
	if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("rate limit counters swept")
	}
}
