package pipeline

import "github.com/outsourceats/hirex/internal/models"

// allowedTransitions is the pipeline state machine as data. Rejection
// and withdrawal are reachable from every non-terminal status; terminal
// statuses have no outgoing edges. Self-transitions on non-terminal
// statuses are permitted separately by CanTransition: re-confirming a
// stage appends history without repeating its side effects.
var allowedTransitions = map[models.ApplicationStatus][]models.ApplicationStatus{
	models.AppSourced:      {models.AppScreened},
	models.AppScreened:     {models.AppSubmitted, models.AppInterviewing},
	models.AppSubmitted:    {models.AppInterviewing},
	models.AppInterviewing: {models.AppOffered},
	models.AppOffered:      {models.AppJoined},
	models.AppJoined:       {},
	models.AppRejected:     {},
	models.AppWithdrawn:    {},
}

// CanTransition reports whether the state machine permits from → to.
func CanTransition(from, to models.ApplicationStatus) bool {
	if from.Terminal() {
		return false
	}
	if from == to {
		return true
	}
	if to == models.AppRejected || to == models.AppWithdrawn {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
