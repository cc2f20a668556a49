package cleanup

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/Yundera/mesh-router-backend/server/reqctx"
	"github.com/Yundera/mesh-router-backend/util"
)

// CronRunner drives Controller.Run on the schedule parsed from
// CLEANUP_CRON_SCHEDULE (default "0 3 * * *", daily at 03:00 process-local time).
type CronRunner struct {
	cron       *cron.Cron
	controller *Controller
}

// NewCronRunner parses schedule and binds it to controller. The cron job
// itself never returns an error to the scheduler; failures are logged.
func NewCronRunner(schedule string, controller *Controller) (*CronRunner, error) {
	c := cron.New()
	r := &CronRunner{cron: c, controller: controller}

	_, err := c.AddFunc(schedule, func() {
		ctx := context.WithValue(context.Background(), reqctx.SourceKey, util.CleanupSource)
		result, err := controller.Run(ctx)
		if err != nil {
			log.WithContext(ctx).WithField("runId", result.RunID).WithError(err).Warn("scheduled cleanup pass completed with errors")
			return
		}
		log.WithContext(ctx).WithField("runId", result.RunID).Infof("scheduled cleanup pass released %d domain(s)", result.ReleasedCount)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Start begins running the cron schedule in the background.
func (r *CronRunner) Start() {
	r.cron.Start()
}

// Stop halts the schedule, waiting for any in-flight run to finish.
func (r *CronRunner) Stop() {
	<-r.cron.Stop().Done()
}
