package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/outsourceats/hirex/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCalculateSLAEndDate(t *testing.T) {
	start := date(2026, time.March, 1)
	window := CalculateSLA(7, start, start)

	assert.Equal(t, date(2026, time.March, 1), window.Start)
	assert.Equal(t, date(2026, time.March, 8), window.End)
	assert.Equal(t, models.SLAOnTrack, window.Status)
}

func TestCalculateSLABoundaries(t *testing.T) {
	start := date(2026, time.March, 1)
	end := date(2026, time.March, 8) // start + 7

	tests := []struct {
		name  string
		today time.Time
		want  models.SLAStatus
	}{
		{"three days remaining is on track", end.AddDate(0, 0, -3), models.SLAOnTrack},
		{"two days remaining is at risk", end.AddDate(0, 0, -2), models.SLAAtRisk},
		{"one day remaining is at risk", end.AddDate(0, 0, -1), models.SLAAtRisk},
		{"deadline day itself is at risk, not breached", end, models.SLAAtRisk},
		{"one day past deadline is breached", end.AddDate(0, 0, 1), models.SLABreached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window := CalculateSLA(7, start, tt.today)
			assert.Equal(t, tt.want, window.Status)
			assert.Equal(t, end, window.End, "end date never depends on today")
		})
	}
}

func TestCalculateSLAIsDeterministic(t *testing.T) {
	start := date(2026, time.January, 10)
	today := date(2026, time.January, 14)
	first := CalculateSLA(5, start, today)
	second := CalculateSLA(5, start, today)
	assert.Equal(t, first, second)
}

func TestCalculateSLAIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2026, time.March, 1, 23, 45, 0, 0, time.UTC)
	today := time.Date(2026, time.March, 8, 0, 1, 0, 0, time.UTC)
	window := CalculateSLA(7, start, today)
	assert.Equal(t, models.SLAAtRisk, window.Status)
}

func TestWindowForJDDefaults(t *testing.T) {
	start := date(2026, time.March, 1)

	jd := &models.JobDescription{}
	window := WindowForJD(jd, start, start)
	assert.Equal(t, start.AddDate(0, 0, DefaultSLADays), window.End)

	days := 14
	jd.SLADays = &days
	window = WindowForJD(jd, start, start)
	assert.Equal(t, start.AddDate(0, 0, 14), window.End)

	zero := 0
	jd.SLADays = &zero
	window = WindowForJD(jd, start, start)
	assert.Equal(t, start.AddDate(0, 0, DefaultSLADays), window.End, "non-positive config falls back to default")
}

func TestEvaluateStatusRecomputesOnRead(t *testing.T) {
	start := date(2026, time.March, 1)
	end := date(2026, time.March, 8)
	app := &models.Application{
		SLAStartDate: &start,
		SLAEndDate:   &end,
		SLAStatus:    models.SLAOnTrack, // stale snapshot
	}

	assert.Equal(t, models.SLAAtRisk, EvaluateStatus(app, end.AddDate(0, 0, -2)))
	assert.Equal(t, models.SLABreached, EvaluateStatus(app, end.AddDate(0, 0, 1)))
}

func TestEvaluateStatusWithoutWindow(t *testing.T) {
	app := &models.Application{SLAStatus: models.SLAOnTrack}
	assert.Equal(t, models.SLAOnTrack, EvaluateStatus(app, date(2026, time.March, 1)))
}
