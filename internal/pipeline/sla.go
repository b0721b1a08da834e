package pipeline

import (
	"time"

	"github.com/outsourceats/hirex/internal/models"
)

const (
	// DefaultSLADays applies when neither the JD nor its client
	// configures a window.
	DefaultSLADays = 7

	// atRiskThresholdDays is inclusive: exactly 2 days remaining is
	// already at risk, and the deadline day itself (0 remaining) is at
	// risk, not breached.
	atRiskThresholdDays = 2
)

// SLAWindow is the computed submission deadline for an application.
type SLAWindow struct {
	Start  time.Time
	End    time.Time
	Status models.SLAStatus
}

// CalculateSLA derives the window end and status from the configured
// day count, the clock-start date and the current date. Pure and
// deterministic; callers re-evaluate on every read because "today"
// advances independent of any write.
func CalculateSLA(slaDays int, start, today time.Time) SLAWindow {
	startDate := dateOnly(start)
	end := startDate.AddDate(0, 0, slaDays)

	daysRemaining := daysBetween(dateOnly(today), end)

	status := models.SLAOnTrack
	switch {
	case daysRemaining < 0:
		status = models.SLABreached
	case daysRemaining <= atRiskThresholdDays:
		status = models.SLAAtRisk
	}

	return SLAWindow{Start: startDate, End: end, Status: status}
}

// WindowForJD computes the SLA window for an application created today
// against jd, falling back to the default day count.
func WindowForJD(jd *models.JobDescription, start, today time.Time) SLAWindow {
	days := DefaultSLADays
	if jd.SLADays != nil && *jd.SLADays > 0 {
		days = *jd.SLADays
	}
	return CalculateSLA(days, start, today)
}

// EvaluateStatus recomputes the stored SLA status of app as of today.
// Returns the stored value unchanged when no window was ever started.
func EvaluateStatus(app *models.Application, today time.Time) models.SLAStatus {
	if app.SLAStartDate == nil || app.SLAEndDate == nil {
		return app.SLAStatus
	}
	daysRemaining := daysBetween(dateOnly(today), dateOnly(*app.SLAEndDate))
	switch {
	case daysRemaining < 0:
		return models.SLABreached
	case daysRemaining <= atRiskThresholdDays:
		return models.SLAAtRisk
	default:
		return models.SLAOnTrack
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
