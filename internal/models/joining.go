package models

import (
	"time"

	"gorm.io/datatypes"
)

type JoiningStatus string

const (
	JoiningConfirmed           JoiningStatus = "confirmed"
	JoiningNoShow              JoiningStatus = "no_show"
	JoiningDelayed             JoiningStatus = "delayed"
	JoiningReplacementRequired JoiningStatus = "replacement_required"
)

type Joining struct {
	BaseModel

	ApplicationID uint `gorm:"not null;uniqueIndex"`
	OfferID       uint `gorm:"not null;index"`

	ActualJoiningDate   *time.Time `gorm:"index"`
	ExpectedJoiningDate *time.Time

	// Client-side provisioning
	EmployeeID       string
	WorkEmail        string
	ReportingManager string

	Status JoiningStatus `gorm:"type:varchar(24);not null;default:'confirmed';index"`

	NoShowReason string
	NoShowDate   *time.Time

	// ReplacementApplicationID points forward to the fresh pipeline
	// instance opened when a replacement hire is needed.
	ReplacementWindowDays    *int
	ReplacementInitiated     bool  `gorm:"not null;default:false"`
	ReplacementApplicationID *uint `gorm:"index"`

	BGVStatus          string
	DocumentsCollected datatypes.JSON
	OnboardingStatus   datatypes.JSON

	Notes     string
	CreatedBy uint `gorm:"not null"`

	Application            Application  `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Offer                  Offer        `gorm:"foreignKey:OfferID" json:"-"`
	ReplacementApplication *Application `gorm:"foreignKey:ReplacementApplicationID" json:"-"`
}

func (j *Joining) HasJoined() bool {
	return j.ActualJoiningDate != nil && j.Status == JoiningConfirmed
}
