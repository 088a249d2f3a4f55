package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Provision log sweep, hourly
	CronScheduleProvisionSweep string `env:"CRON_SCHEDULE_PROVISION_SWEEP" envDefault:"0 0 * * * *"`
	// Minimum age in minutes before an uncommitted entry counts as orphaned
	ProvisionSweepMinAgeMinutes int `env:"PROVISION_SWEEP_MIN_AGE_MINUTES" envDefault:"60"`
}
