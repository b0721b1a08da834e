package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outsourceats/hirex/internal/models"
)

func TestForwardTransitions(t *testing.T) {
	allowed := []struct{ from, to models.ApplicationStatus }{
		{models.AppSourced, models.AppScreened},
		{models.AppScreened, models.AppSubmitted},
		{models.AppScreened, models.AppInterviewing},
		{models.AppSubmitted, models.AppInterviewing},
		{models.AppInterviewing, models.AppOffered},
		{models.AppOffered, models.AppJoined},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	denied := []struct{ from, to models.ApplicationStatus }{
		{models.AppSourced, models.AppSubmitted},
		{models.AppSourced, models.AppInterviewing},
		{models.AppScreened, models.AppOffered},
		{models.AppSubmitted, models.AppOffered},
		{models.AppInterviewing, models.AppJoined},
		{models.AppOffered, models.AppScreened},
		{models.AppJoined, models.AppOffered},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestRejectionAndWithdrawalReachableFromAnyActiveStatus(t *testing.T) {
	active := []models.ApplicationStatus{
		models.AppSourced, models.AppScreened, models.AppSubmitted,
		models.AppInterviewing, models.AppOffered,
	}
	for _, from := range active {
		assert.True(t, CanTransition(from, models.AppRejected), "%s -> rejected", from)
		assert.True(t, CanTransition(from, models.AppWithdrawn), "%s -> withdrawn", from)
	}
}

func TestTerminalStatusesAbsorb(t *testing.T) {
	terminal := []models.ApplicationStatus{models.AppRejected, models.AppWithdrawn, models.AppJoined}
	targets := []models.ApplicationStatus{
		models.AppSourced, models.AppScreened, models.AppSubmitted, models.AppInterviewing,
		models.AppOffered, models.AppJoined, models.AppRejected, models.AppWithdrawn,
	}
	for _, from := range terminal {
		for _, to := range targets {
			assert.False(t, CanTransition(from, to), "%s -> %s must be absorbed", from, to)
		}
	}
}

func TestSelfTransitionAllowedOnActiveStatuses(t *testing.T) {
	assert.True(t, CanTransition(models.AppScreened, models.AppScreened))
	assert.True(t, CanTransition(models.AppInterviewing, models.AppInterviewing))
	assert.False(t, CanTransition(models.AppJoined, models.AppJoined))
}
