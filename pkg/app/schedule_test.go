package app

import (
	"testing"

	"blinds/pkg/app/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleJob(t *testing.T) {
	tests := []struct {
		action string
		call   string
	}{
		{action: "open", call: "open"},
		{action: "close", call: "close"},
		{action: "stop", call: "stop"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			a, fake := newTestApp(t, nil)
			job, err := a.scheduleJob(config.ScheduleConfig{Name: "morning", Cron: "0 7 * * *", Channel: 4, Action: tt.action})
			require.NoError(t, err)

			job()
			assert.Equal(t, []string{"set_channel 4", tt.call}, fake.Recorded())
			assert.Equal(t, 4, fake.Channel())
		})
	}
}

func TestScheduleJobCancelled(t *testing.T) {
	a, fake := newTestApp(t, nil)
	job, err := a.scheduleJob(config.ScheduleConfig{Name: "evening", Cron: "0 19 * * *", Channel: 2, Action: "close"})
	require.NoError(t, err)

	a.cancel()
	job()
	assert.Empty(t, fake.Recorded())
}

func TestInitSchedules(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Schedules = []config.ScheduleConfig{
		{Name: "morning", Cron: "0 7 * * *", Channel: 2, Action: "open"},
		{Name: "evening", Cron: "30 19 * * 1-5", Channel: 0, Action: "close"},
	}
	a, _ := newTestApp(t, cfg)

	require.NoError(t, a.initSchedules())
	assert.Len(t, a.cron.Entries(), 2)
}

func TestInitSchedulesErrors(t *testing.T) {
	tests := []struct {
		name     string
		schedule config.ScheduleConfig
	}{
		{name: "bad cron", schedule: config.ScheduleConfig{Name: "x", Cron: "every morning", Channel: 1, Action: "open"}},
		{name: "bad action", schedule: config.ScheduleConfig{Name: "x", Cron: "0 7 * * *", Channel: 1, Action: "pair"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.NewConfig()
			cfg.Schedules = []config.ScheduleConfig{tt.schedule}
			a, _ := newTestApp(t, cfg)
			assert.Error(t, a.initSchedules())
		})
	}
}
