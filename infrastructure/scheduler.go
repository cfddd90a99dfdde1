package infrastructure

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

func NewScheduler(log *logrus.Entry) *Scheduler {
	logger := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger))),
		log:  log,
	}
}

// cronLogger routes cron's own logging, including recovered job panics, into
// logrus. cron's chatty Info lines go to debug.
type cronLogger struct {
	log *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(kvFields(keysAndValues)).Error(msg)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}

// Add registers fn under a cron spec. Each run gets its own timeout.
func (s *Scheduler) Add(name, spec string, timeout time.Duration, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		entry := s.log.WithField("job", name)
		if err := fn(ctx); err != nil {
			entry.WithError(err).Error("scheduled job failed")
			return
		}
		entry.WithField("took", time.Since(start)).Debug("scheduled job finished")
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
