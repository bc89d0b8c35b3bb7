package clean

import (
	"time"

	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

// OldIDsProvider returns expired job IDs for the cleaning service
type OldIDsProvider interface {
	Get() ([]string, error)
}

// TimerData keeps data required for the periodic cleaning task
type TimerData struct {
	RunEvery    time.Duration
	Cleaner     Cleaner
	IDsProvider OldIDsProvider

	qChan        chan struct{}
	workWaitChan chan struct{}
}

// StartCleanTimer runs the cleaning loop on its own goroutine
func StartCleanTimer(data *TimerData) error {
	if data.Cleaner == nil || data.IDsProvider == nil {
		return errors.New("no cleaner or ids provider")
	}
	if data.RunEvery <= 0 {
		return errors.New("wrong runEvery duration")
	}
	data.qChan = make(chan struct{})
	data.workWaitChan = make(chan struct{})
	cmdapp.Log.Infof("Starting clean timer every %v", data.RunEvery)
	go serviceLoop(data)
	return nil
}

// Stop ends the loop and waits for it to finish
func (data *TimerData) Stop() {
	close(data.qChan)
	<-data.workWaitChan
}

func serviceLoop(data *TimerData) {
	ticker := time.NewTicker(data.RunEvery)
	// run on startup
	doClean(data)
mainloop:
	for {
		select {
		case <-ticker.C:
			doClean(data)
		case <-data.qChan:
			ticker.Stop()
			break mainloop
		}
	}
	cmdapp.Log.Infof("Stopped clean timer")
	close(data.workWaitChan)
}

func doClean(data *TimerData) {
	cmdapp.Log.Info("Running cleaning")
	ids, err := data.IDsProvider.Get()
	if err != nil {
		cmdapp.Log.Error(err)
	}
	cmdapp.Log.Infof("Got %d IDs to clean", len(ids))
	for _, id := range ids {
		err = data.Cleaner.Clean(id)
		if err != nil {
			cmdapp.Log.Error(err)
		}
	}
}
