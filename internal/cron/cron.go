package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/byteshifted/mailpanel/config"
	cron_config "github.com/byteshifted/mailpanel/internal/cron/config"
	"github.com/byteshifted/mailpanel/internal/logger"
	"github.com/byteshifted/mailpanel/internal/repository"
	"github.com/byteshifted/mailpanel/internal/tracing"
)

// CONSTANTS
const (
	// GroupProvision is the group for provision log maintenance jobs
	GroupProvision = "provision"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupProvision: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg           *config.Config
	log           logger.Logger
	cron          *cronv3.Cron
	k8s           kubernetes.Interface
	stopCh        chan struct{}
	jobIDs        map[string]cronv3.EntryID
	provisionLogs repository.ProvisionLogRepository
	sweepMinAge   time.Duration
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, provisionLogs repository.ProvisionLogRepository) *CronManager {
	return &CronManager{
		cfg:           cfg,
		log:           log,
		k8s:           k8s,
		stopCh:        make(chan struct{}),
		jobIDs:        make(map[string]cronv3.EntryID),
		provisionLogs: provisionLogs,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "mailpanel-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		ctx := context.Background()
		le.Run(ctx)
	}()

	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
		// Leader election seems to be working, continue normally
	}

	return nil
}

// Stop gracefully stops the cron manager
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		// Wait for jobs to finish
		<-ctx.Done()
	}
	close(cm.stopCh)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}
	cm.sweepMinAge = time.Duration(cronConfig.ProvisionSweepMinAgeMinutes) * time.Minute

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		id, err := c.AddFunc(cronConfig.CronScheduleHeartbeat, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
		if err != nil {
			cm.log.Fatalf("Could not add heartbeat cron job: %v", err)
		}
		cm.jobIDs["heartbeat"] = id
		cm.log.Infof("Registered heartbeat job with schedule: %s", cronConfig.CronScheduleHeartbeat)
	}

	if cronConfig.CronScheduleProvisionSweep != "" {
		id, err := c.AddFunc(cronConfig.CronScheduleProvisionSweep, func() {
			defer tracing.RecoverAndLogToJaeger(cm.log)
			jobLocks.locks[GroupProvision].Lock()
			defer jobLocks.locks[GroupProvision].Unlock()
			cm.sweepProvisionLog()
		})
		if err != nil {
			cm.log.Fatalf("Could not add provision sweep cron job: %v", err)
		}
		cm.jobIDs["provision_sweep"] = id
		cm.log.Infof("Registered provision sweep job with schedule: %s", cronConfig.CronScheduleProvisionSweep)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// sweepProvisionLog reports provision log entries whose local write never
// committed: each one marks a mailcow entity with no local record. The
// entry is removed after reporting so the same orphan is not reported
// every sweep. The external entity itself is left for operator cleanup.
func (cm *CronManager) sweepProvisionLog() {
	cm.log.Info("Running provision log sweep")

	ctx := context.Background()

	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.sweepProvisionLog")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	cutoff := time.Now().UTC().Add(-cm.sweepMinAge)
	entries, err := cm.provisionLogs.ListUncommittedOlderThan(ctx, cutoff)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list uncommitted provision log entries: %v", err)
		return
	}

	for _, entry := range entries {
		cm.log.Warnf("Orphaned external %s %s (user %s, provisioned %s) has no local record",
			entry.ResourceKind, entry.ExternalID, entry.UserID, entry.CreatedAt.Format(time.RFC3339))
		if err := cm.provisionLogs.Delete(ctx, entry.ID); err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to delete provision log entry %s: %v", entry.ID, err)
		}
	}

	cm.log.Infof("Provision log sweep completed, %d orphaned entries reported", len(entries))
}
