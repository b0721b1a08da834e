package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PitchStatus string

const (
	PitchDraft     PitchStatus = "draft"
	PitchSent      PitchStatus = "sent"
	PitchApproved  PitchStatus = "approved"
	PitchRejected  PitchStatus = "rejected"
	PitchConverted PitchStatus = "converted"
)

type Pitch struct {
	gorm.Model

	ClientID uint `gorm:"not null;index"`

	Title       string `gorm:"not null"`
	Description string

	// ProposedRoles example: [{"title": "Senior Developer", "count": 5, "rate": 5000}]
	ProposedRoles     datatypes.JSON
	ExpectedHeadcount *int
	RateCard          datatypes.JSON

	Status PitchStatus `gorm:"type:varchar(16);not null;default:'draft';index"`

	SentDate     *time.Time
	DecisionDate *time.Time

	Notes           string
	RejectionReason string

	CreatedBy uint `gorm:"not null"`

	Client          Client           `gorm:"foreignKey:ClientID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	JobDescriptions []JobDescription `gorm:"foreignKey:PitchID"`
}

// Editable reports whether the pitch can still be modified or deleted.
func (p *Pitch) Editable() bool {
	return p.Status == PitchDraft
}

// Convertible reports whether the pitch can be turned into a JD.
func (p *Pitch) Convertible() bool {
	return p.Status == PitchApproved
}
