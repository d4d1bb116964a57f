package app

import (
	"fmt"

	"blinds/pkg/app/config"
	"blinds/pkg/remote"

	"github.com/womat/debug"
)

// initSchedules registers a cron job for every configured schedule.
func (app *App) initSchedules() error {
	for _, s := range app.config.Schedules {
		job, err := app.scheduleJob(s)
		if err != nil {
			return err
		}
		if _, err := app.cron.AddFunc(s.Cron, job); err != nil {
			return fmt.Errorf("schedule %q: cron %q: %w", s.Name, s.Cron, err)
		}
		debug.InfoLog.Printf("schedule %q: %s channel %d at %q", s.Name, s.Action, s.Channel, s.Cron)
	}
	return nil
}

// scheduleJob selects the channel and presses the action button in one gated sequence.
func (app *App) scheduleJob(s config.ScheduleConfig) (func(), error) {
	var action func(remote.Remote) error
	switch s.Action {
	case "open":
		action = remote.Remote.Open
	case "close":
		action = remote.Remote.Close
	case "stop":
		action = remote.Remote.Stop
	default:
		return nil, fmt.Errorf("schedule %q: unsupported action %q", s.Name, s.Action)
	}

	return func() {
		debug.InfoLog.Printf("schedule %q: %s channel %d", s.Name, s.Action, s.Channel)
		err := app.blinds.Sequence(app.ctx, "schedule/"+s.Name,
			func(r remote.Remote) error { return r.SetChannel(s.Channel) },
			action,
		)
		if err != nil {
			debug.ErrorLog.Printf("schedule %q: %v", s.Name, err)
		}
	}, nil
}
