package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byteshifted/mailpanel/config"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/models"
)

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type fakeProvisionLogRepo struct {
	entries map[string]*models.ProvisionLog
	deleted []string
	listErr error
}

func newFakeProvisionLogRepo() *fakeProvisionLogRepo {
	return &fakeProvisionLogRepo{entries: make(map[string]*models.ProvisionLog)}
}

func (f *fakeProvisionLogRepo) Create(ctx context.Context, entry *models.ProvisionLog) (string, error) {
	f.entries[entry.ID] = entry
	return entry.ID, nil
}

func (f *fakeProvisionLogRepo) MarkCommitted(ctx context.Context, id string) error {
	if entry, ok := f.entries[id]; ok {
		entry.Committed = true
	}
	return nil
}

func (f *fakeProvisionLogRepo) ListUncommittedOlderThan(ctx context.Context, cutoff time.Time) ([]*models.ProvisionLog, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var result []*models.ProvisionLog
	for _, entry := range f.entries {
		if !entry.Committed && entry.CreatedAt.Before(cutoff) {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (f *fakeProvisionLogRepo) Delete(ctx context.Context, id string) error {
	delete(f.entries, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func TestNewCronManager(t *testing.T) {
	repo := newFakeProvisionLogRepo()
	cm := NewCronManager(&config.Config{}, getTestLogger(), nil, repo)

	require.NotNil(t, cm)
	assert.Nil(t, cm.cron)
	assert.NotNil(t, cm.stopCh)
	assert.Empty(t, cm.jobIDs)
}

func TestStartCronRegistersJobs(t *testing.T) {
	cm := NewCronManager(&config.Config{}, getTestLogger(), nil, newFakeProvisionLogRepo())

	cm.StartCron()
	defer cm.Stop()

	require.NotNil(t, cm.cron)
	assert.Contains(t, cm.jobIDs, "heartbeat")
	assert.Contains(t, cm.jobIDs, "provision_sweep")
}

func TestSweepProvisionLogDeletesOrphanedEntries(t *testing.T) {
	now := time.Now().UTC()
	repo := newFakeProvisionLogRepo()
	repo.entries["prov_old1"] = &models.ProvisionLog{
		ID:           "prov_old1",
		ResourceKind: "mailbox",
		ExternalID:   "alice@example.com",
		UserID:       "user_1",
		CreatedAt:    now.Add(-2 * time.Hour),
	}
	repo.entries["prov_old2"] = &models.ProvisionLog{
		ID:           "prov_old2",
		ResourceKind: "domain",
		ExternalID:   "example.com",
		UserID:       "user_1",
		CreatedAt:    now.Add(-3 * time.Hour),
	}
	repo.entries["prov_committed"] = &models.ProvisionLog{
		ID:        "prov_committed",
		Committed: true,
		CreatedAt: now.Add(-2 * time.Hour),
	}
	repo.entries["prov_recent"] = &models.ProvisionLog{
		ID:        "prov_recent",
		CreatedAt: now.Add(-time.Minute),
	}

	cm := NewCronManager(&config.Config{}, getTestLogger(), nil, repo)
	cm.sweepMinAge = time.Hour

	cm.sweepProvisionLog()

	assert.ElementsMatch(t, []string{"prov_old1", "prov_old2"}, repo.deleted)
	assert.Contains(t, repo.entries, "prov_committed")
	assert.Contains(t, repo.entries, "prov_recent")
}

func TestSweepProvisionLogListFailure(t *testing.T) {
	repo := newFakeProvisionLogRepo()
	repo.listErr = assert.AnError

	cm := NewCronManager(&config.Config{}, getTestLogger(), nil, repo)
	cm.sweepMinAge = time.Hour

	cm.sweepProvisionLog()

	assert.Empty(t, repo.deleted)
}
