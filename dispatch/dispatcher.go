package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"scam-alert-service/models"
	"scam-alert-service/trends"

	"github.com/apex/log"
)

// Store is the read-only view of the persistence layer the dispatcher needs
type Store interface {
	ListPublicReportsSince(ctx context.Context, since time.Time) ([]models.ScamReport, error)
	ListActiveSubscriptionsWithToken(ctx context.Context) ([]models.AlertSubscription, error)
}

// Sender delivers a single push notification to a device token
type Sender interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

// Dispatcher runs the periodic aggregate-match-send cycle
type Dispatcher struct {
	store         Store
	sender        Sender
	interval      time.Duration
	lookbackHours int

	// running guards against overlapping cycles when a tick outlives the
	// interval. A busy tick is skipped, not queued.
	running atomic.Bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher. The sender may be a nil push client;
// the cycle still runs and logs the drops.
func NewDispatcher(store Store, sender Sender, interval time.Duration, lookbackHours int) *Dispatcher {
	return &Dispatcher{
		store:         store,
		sender:        sender,
		interval:      interval,
		lookbackHours: lookbackHours,
		stopChan:      make(chan struct{}),
	}
}

// Start launches the dispatch loop. One cycle runs immediately, then one per
// interval until Stop is called.
func (d *Dispatcher) Start() {
	log.Infof("Starting trend dispatch loop, interval %s, lookback %dh", d.interval, d.lookbackHours)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		d.runOnce()

		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-d.stopChan:
				log.Info("Trend dispatch loop stopped")
				return
			case <-ticker.C:
				d.runOnce()
			}
		}
	}()
}

// Stop terminates the dispatch loop and waits for an in-flight cycle
func (d *Dispatcher) Stop() {
	close(d.stopChan)
	d.wg.Wait()
}

func (d *Dispatcher) runOnce() {
	sent, failed, err := d.RunCycle(context.Background())
	if err != nil {
		log.Errorf("Dispatch cycle failed: %v", err)
		return
	}
	if sent+failed > 0 {
		log.Infof("Dispatch cycle complete: %d sent, %d failed", sent, failed)
	}
}

// RunCycle performs one dispatch cycle: aggregate recent reports, keep the
// high-severity trends, match them against active subscriptions and push one
// notification per matched subscriber. A store read failure aborts the whole
// cycle; a per-subscriber send failure is logged and skipped.
//
// If another cycle is still in flight this one is skipped.
func (d *Dispatcher) RunCycle(ctx context.Context) (sent, failed int, err error) {
	if !d.running.CompareAndSwap(false, true) {
		log.Warn("Previous dispatch cycle still running, skipping this tick")
		return 0, 0, nil
	}
	defer d.running.Store(false)

	now := time.Now().UTC()
	since := now.Add(-time.Duration(d.lookbackHours) * time.Hour)

	reports, err := d.store.ListPublicReportsSince(ctx, since)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load recent reports: %w", err)
	}

	trending := trends.Compute(reports, d.lookbackHours, now)
	high := trends.FilterHigh(trending)
	if len(high) == 0 {
		log.Debugf("No high severity trends among %d categories, nothing to dispatch", len(trending))
		return 0, 0, nil
	}

	subs, err := d.store.ListActiveSubscriptionsWithToken(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	selected := trends.SelectNotifications(high, subs)
	log.Infof("Dispatching %d notifications for %d high severity trends to %d subscribers",
		len(selected), len(high), len(subs))

	for _, notification := range selected {
		trend := notification.Trend
		data := map[string]string{
			"type":        "trending_alert",
			"severity":    trend.Severity,
			"category":    trend.Category,
			"reportCount": fmt.Sprintf("%d", trend.ReportCount),
		}

		sendErr := d.sender.Send(ctx, *notification.Subscription.FCMToken,
			trend.Title, trend.Description, data)
		if sendErr != nil {
			// No retry within the cycle; a still-trending category is
			// re-evaluated on the next tick.
			log.Errorf("Failed to push %q to user %s: %v",
				trend.Category, notification.Subscription.UserID, sendErr)
			failed++
			continue
		}
		sent++
	}

	return sent, failed, nil
}
