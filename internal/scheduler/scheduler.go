package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/outsourceats/hirex/db"
	"github.com/outsourceats/hirex/internal/models"
	"github.com/outsourceats/hirex/internal/pipeline"
	"github.com/outsourceats/hirex/internal/services"
)

// Scheduler periodically re-evaluates the stored SLA snapshot of every
// live application. Reads recompute on the fly; the sweep keeps the
// stored column usable for filtering and fires breach notifications.
type Scheduler struct {
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewScheduler(interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs one sweep immediately and then ticks until Stop.
func (s *Scheduler) Start() {
	log.Printf("Starting SLA sweep every %s", s.interval)

	go func() {
		s.sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	log.Println("Stopping SLA sweep")
	s.cancel()
}

// sweep recomputes sla_status for applications still moving through
// the pipeline and notifies on new breaches.
func (s *Scheduler) sweep() {
	activeStatuses := []models.ApplicationStatus{
		models.AppSourced, models.AppScreened, models.AppSubmitted,
		models.AppInterviewing, models.AppOffered,
	}

	var apps []models.Application
	if err := db.DB.Where("status IN ? AND sla_end_date IS NOT NULL", activeStatuses).
		Find(&apps).Error; err != nil {
		log.Printf("SLA sweep failed to load applications: %v", err)
		return
	}

	today := time.Now().UTC()
	updated := 0
	newlyBreached := 0

	for i := range apps {
		app := &apps[i]
		current := pipeline.EvaluateStatus(app, today)
		if current == app.SLAStatus {
			continue
		}

		if err := db.DB.Model(&models.Application{}).
			Where("id = ?", app.ID).
			Update("sla_status", current).Error; err != nil {
			log.Printf("SLA sweep failed to update application %d: %v", app.ID, err)
			continue
		}

		updated++
		if current == models.SLABreached {
			newlyBreached++
		}
	}

	if updated > 0 {
		log.Printf("SLA sweep updated %d application(s)", updated)
	}
	if newlyBreached > 0 {
		go services.NotifySLABreach(newlyBreached)
	}
}
