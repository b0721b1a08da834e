package models

import "time"

type InterviewStatus string

const (
	InterviewScheduled   InterviewStatus = "scheduled"
	InterviewCompleted   InterviewStatus = "completed"
	InterviewCancelled   InterviewStatus = "cancelled"
	InterviewRescheduled InterviewStatus = "rescheduled"
	InterviewNoShow      InterviewStatus = "no_show"
)

type InterviewResult string

const (
	ResultSelected InterviewResult = "selected"
	ResultRejected InterviewResult = "rejected"
	ResultOnHold   InterviewResult = "on_hold"
	ResultPending  InterviewResult = "pending"
)

type InterviewMode string

const (
	ModePhone         InterviewMode = "phone"
	ModeVideo         InterviewMode = "video"
	ModeInPerson      InterviewMode = "in_person"
	ModeTechnicalTest InterviewMode = "technical_test"
)

type Interview struct {
	BaseModel

	ApplicationID uint `gorm:"not null;index"`

	RoundNumber int    `gorm:"not null;default:1"`
	RoundName   string `gorm:"not null"` // "Technical Round 1", "HR Round"

	ScheduledDate   *time.Time `gorm:"index"`
	DurationMinutes int        `gorm:"default:60"`

	InterviewerName        string
	InterviewerEmail       string
	InterviewerDesignation string
	IsClientInterview      bool `gorm:"not null;default:false"`

	Mode        InterviewMode `gorm:"type:varchar(16);not null;default:'video'"`
	MeetingLink string
	Location    string

	Status InterviewStatus `gorm:"type:varchar(16);not null;default:'scheduled';index"`

	// Feedback fields are only meaningful once Status is completed.
	Feedback   string
	Rating     *int
	Strengths  string
	Weaknesses string
	Result     InterviewResult `gorm:"type:varchar(16);default:'pending';index"`

	NextRoundScheduled bool `gorm:"not null;default:false"`
	AdditionalNotes    string

	CreatedBy   uint `gorm:"not null"`
	CompletedAt *time.Time

	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

func (i *Interview) Completed() bool {
	return i.Status == InterviewCompleted
}
