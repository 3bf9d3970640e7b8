package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// cronStub records registrations in place of a live cron runner.
type cronStub struct {
	specs     []string
	callbacks []func()
	err       error
}

func (c *cronStub) Cron(spec string, callback func()) error {
	if c.err != nil {
		return c.err
	}
	c.specs = append(c.specs, spec)
	c.callbacks = append(c.callbacks, callback)
	return nil
}

func TestSchedulerStatus(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	status := service.SchedulerStatus()
	require.False(t, status.Running)
	require.Empty(t, status.Jobs)
	require.Nil(t, status.LastCatalogueRun)
	require.Nil(t, status.LastSpecialsScrape)
	require.Nil(t, status.LastFreshFoodsImport)

	status = service.StartScheduler()
	require.True(t, status.Running)
	require.Len(t, status.Jobs, 4)
	ids := make([]string, 0, len(status.Jobs))
	for _, job := range status.Jobs {
		ids = append(ids, job.ID)
		_, err := time.Parse(time.RFC3339, job.NextRun)
		require.NoError(t, err, job.ID)
	}
	require.Equal(t, []string{
		"weekly_specials_scrape",
		"weekly_catalogue_update",
		"saturday_catalogue_update",
		"daily_fresh_foods_import",
	}, ids)

	service.StopScheduler()
	status = service.SchedulerStatus()
	require.False(t, status.Running)
	require.Empty(t, status.Jobs)
}

func TestRegisterJobs(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	stub := &cronStub{}
	require.NoError(t, service.RegisterJobs(stub))
	require.Equal(t, []string{"0 5 * * 3", "0 6 * * 3", "0 6 * * 6", "0 6 * * *"}, stub.specs)
	require.Len(t, stub.callbacks, 4)

	// a job firing while the scheduler is stopped is a no-op
	for _, callback := range stub.callbacks {
		callback()
	}
	status := service.SchedulerStatus()
	require.Nil(t, status.LastSpecialsScrape)
	require.Nil(t, status.LastCatalogueRun)
	require.Nil(t, status.LastFreshFoodsImport)

	failing := &cronStub{err: errors.New("boom")}
	err := service.RegisterJobs(failing)
	require.ErrorContains(t, err, "weekly_specials_scrape")
}

func TestTriggerCatalogueUpdateUnknownStore(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	_, err := service.TriggerCatalogueUpdate(context.Background(), "iga")
	require.ErrorIs(t, err, ErrUnknownParser)
}
