package services

import (
	"sync"
	"time"
)

// Sweeper periodically purges expired sessions from the registry. It is a
// garbage-collection pass only; request-path expiry is enforced by the
// registry itself.
type Sweeper struct {
	service  *SessionService
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewSweeper(service *SessionService, interval time.Duration) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully shuts down
func (w *Sweeper) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Sweeper) run() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.service.SweepExpired(time.Now())
		}
	}
}
