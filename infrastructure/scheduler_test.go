package infrastructure

import (
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronLogger_RecoveredPanicIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	job := cron.NewChain(cron.Recover(cronLogger{log: logrus.NewEntry(logger)})).
		Then(cron.FuncJob(func() { panic("boom") }))

	assert.NotPanics(t, job.Run)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "panic", entry.Message)
	err, ok := entry.Data[logrus.ErrorKey].(error)
	require.True(t, ok)
	assert.EqualError(t, err, "boom")
	assert.Contains(t, entry.Data, "stack")
}

func TestCronLogger_InfoIsDebug(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cronLogger{log: logrus.NewEntry(logger)}.Info("wake", "now", "noon", "dangling")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, logrus.Fields{"now": "noon"}, entry.Data)
}
