package pipeline

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/outsourceats/hirex/internal/models"
)

// Actor identifies who is driving a transition, for audit attribution.
type Actor struct {
	ID   uint
	Name string
}

func (a Actor) display() string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("User %d", a.ID)
}

// Request carries the target status plus the metadata specific
// transitions require.
type Request struct {
	To    models.ApplicationStatus
	Notes string

	// Required when To is rejected.
	RejectionReason string
	// Defaults to the prior status when empty.
	RejectionStage string

	WithdrawalReason string
	SubmissionNotes  string
}

// Transition is the only legitimate way to move an application between
// statuses. It validates the state machine, applies the side effects
// coupled to the target status, performs an optimistic compare-and-swap
// on the row version and appends exactly one history row — all within
// the caller's transaction. app is updated in place on success.
func Transition(tx *gorm.DB, app *models.Application, actor Actor, req Request) error {
	if app.DeletedAt.Valid {
		return validationf("application %d is deleted and cannot be modified", app.ID)
	}
	if !req.To.Valid() {
		return validationf("unknown application status: %s", req.To)
	}
	if req.To == models.AppSubmitted {
		if app.Submitted() {
			return validationf("application already submitted to client")
		}
		if app.Status == models.AppSourced {
			return validationf("application must be screened before submission")
		}
	}
	if !CanTransition(app.Status, req.To) {
		return validationf("cannot transition application from %s to %s", app.Status, req.To)
	}
	if req.To == models.AppRejected && req.RejectionReason == "" {
		return validationf("rejection reason is required")
	}

	now := time.Now().UTC()
	from := app.Status

	updates := map[string]interface{}{
		"status":  req.To,
		"version": app.Version + 1,
	}

	switch req.To {
	case models.AppScreened:
		// First entry into SCREENED records the screener once;
		// re-entering later never overwrites the original.
		if app.ScreenedAt == nil {
			updates["screened_by"] = actor.ID
			updates["screened_at"] = now
		}
	case models.AppSubmitted:
		today := dateOnly(now)
		updates["submitted_to_client_date"] = today
		updates["client_submission_notes"] = req.SubmissionNotes
	case models.AppRejected:
		stage := req.RejectionStage
		if stage == "" {
			stage = string(from)
		}
		updates["rejection_reason"] = req.RejectionReason
		updates["rejection_stage"] = stage
		updates["rejected_by"] = actor.display()
		updates["rejected_at"] = now
	case models.AppWithdrawn:
		updates["withdrawal_reason"] = req.WithdrawalReason
		updates["withdrawn_at"] = now
	}

	// Compare-and-swap on the version column: a concurrent transition
	// that committed first makes RowsAffected zero.
	result := tx.Model(&models.Application{}).
		Where("id = ? AND version = ?", app.ID, app.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}

	history := models.ApplicationStatusHistory{
		ApplicationID: app.ID,
		FromStatus:    from,
		ToStatus:      req.To,
		ChangedBy:     actor.ID,
		Notes:         req.Notes,
		ChangedAt:     now,
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	applyUpdates(app, from, req, actor, now)
	return nil
}

// RecordCreation appends the initial history row for a freshly created
// application; the empty FromStatus marks the creation event.
func RecordCreation(tx *gorm.DB, app *models.Application, actor Actor, notes string) error {
	history := models.ApplicationStatusHistory{
		ApplicationID: app.ID,
		FromStatus:    "",
		ToStatus:      app.Status,
		ChangedBy:     actor.ID,
		Notes:         notes,
		ChangedAt:     time.Now().UTC(),
	}
	return tx.Create(&history).Error
}

func applyUpdates(app *models.Application, from models.ApplicationStatus, req Request, actor Actor, now time.Time) {
	app.Status = req.To
	app.Version++

	switch req.To {
	case models.AppScreened:
		if app.ScreenedAt == nil {
			id := actor.ID
			ts := now
			app.ScreenedBy = &id
			app.ScreenedAt = &ts
		}
	case models.AppSubmitted:
		today := dateOnly(now)
		app.SubmittedToClientDate = &today
		app.ClientSubmissionNotes = req.SubmissionNotes
	case models.AppRejected:
		app.RejectionReason = req.RejectionReason
		app.RejectionStage = req.RejectionStage
		if app.RejectionStage == "" {
			app.RejectionStage = string(from)
		}
		app.RejectedBy = actor.display()
		ts := now
		app.RejectedAt = &ts
	case models.AppWithdrawn:
		app.WithdrawalReason = req.WithdrawalReason
		ts := now
		app.WithdrawnAt = &ts
	}
}
