package models

import (
	"time"

	"gorm.io/gorm"
)

type ApplicationStatus string

const (
	AppSourced      ApplicationStatus = "sourced"
	AppScreened     ApplicationStatus = "screened"
	AppSubmitted    ApplicationStatus = "submitted"
	AppInterviewing ApplicationStatus = "interviewing"
	AppOffered      ApplicationStatus = "offered"
	AppJoined       ApplicationStatus = "joined"
	AppRejected     ApplicationStatus = "rejected"
	AppWithdrawn    ApplicationStatus = "withdrawn"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case AppSourced, AppScreened, AppSubmitted, AppInterviewing,
		AppOffered, AppJoined, AppRejected, AppWithdrawn:
		return true
	}
	return false
}

// Terminal statuses absorb the pipeline: no transition leaves them.
func (s ApplicationStatus) Terminal() bool {
	switch s {
	case AppRejected, AppWithdrawn, AppJoined:
		return true
	}
	return false
}

type SLAStatus string

const (
	SLAOnTrack  SLAStatus = "on_track"
	SLAAtRisk   SLAStatus = "at_risk"
	SLABreached SLAStatus = "breached"
)

// Application is the pipeline record for one (candidate, JD) pairing.
type Application struct {
	gorm.Model

	// The (CandidateID, JDID) pair is unique among non-deleted rows;
	// enforced at creation so a soft-deleted application does not block
	// re-sourcing the same candidate.
	CandidateID uint `gorm:"not null;index"`
	JDID        uint `gorm:"not null;index"`

	Status    ApplicationStatus `gorm:"type:varchar(16);not null;default:'sourced';index"`
	Substatus string

	// Version guards against concurrent transitions: the transition
	// handler performs a compare-and-swap on it and fails with a
	// conflict when the row moved underneath the request.
	Version int64 `gorm:"not null;default:0"`

	// Screening; set once on first entry into SCREENED, never overwritten.
	ScreeningNotes string
	InternalRating *int
	ScreenedBy     *uint
	ScreenedAt     *time.Time

	// Client submission
	SubmittedToClientDate *time.Time `gorm:"index"`
	ClientSubmissionNotes string

	// SLA window; SLAStatus is a stored snapshot, recomputed on read
	// and by the periodic sweep.
	SLAStartDate *time.Time
	SLAEndDate   *time.Time
	SLAStatus    SLAStatus `gorm:"type:varchar(16);index"`

	// Rejection
	RejectionReason string
	RejectionStage  string
	RejectedBy      string
	RejectedAt      *time.Time

	// Withdrawal
	WithdrawalReason string
	WithdrawnAt      *time.Time

	Notes     string
	CreatedBy uint `gorm:"not null"`

	Candidate      Candidate                  `gorm:"foreignKey:CandidateID" json:"-"`
	JobDescription JobDescription             `gorm:"foreignKey:JDID" json:"-"`
	StatusHistory  []ApplicationStatusHistory `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Interviews     []Interview                `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Offers         []Offer                    `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// Active reports whether the application is still moving through the pipeline.
func (a *Application) Active() bool {
	return !a.Status.Terminal()
}

func (a *Application) Submitted() bool {
	return a.SubmittedToClientDate != nil
}

// ApplicationStatusHistory is the append-only audit trail: one immutable
// row per transition. FromStatus is empty only for the creation event.
type ApplicationStatusHistory struct {
	BaseModel

	ApplicationID uint `gorm:"not null;index"`

	FromStatus ApplicationStatus `gorm:"type:varchar(16)"`
	ToStatus   ApplicationStatus `gorm:"type:varchar(16);not null"`

	ChangedBy uint `gorm:"not null"`
	Notes     string
	ChangedAt time.Time `gorm:"not null"`

	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Changer     User        `gorm:"foreignKey:ChangedBy" json:"-"`
}
