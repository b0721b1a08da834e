package models

import (
	"time"

	"gorm.io/datatypes"
)

type OfferStatus string

const (
	OfferDraft       OfferStatus = "draft"
	OfferSent        OfferStatus = "sent"
	OfferNegotiating OfferStatus = "negotiating"
	OfferAccepted    OfferStatus = "accepted"
	OfferDeclined    OfferStatus = "declined"
	OfferCancelled   OfferStatus = "cancelled"
	OfferExpired     OfferStatus = "expired"
)

type Offer struct {
	BaseModel

	ApplicationID uint `gorm:"not null;index"`

	OfferNumber string `gorm:"uniqueIndex;not null"`
	Designation string `gorm:"not null"`
	Department  string

	CTCAnnual         float64 `gorm:"not null"`
	FixedComponent    *float64
	VariableComponent *float64
	Currency          string `gorm:"not null;default:'USD'"`

	OtherBenefits datatypes.JSON

	JoiningDateProposed *time.Time
	OfferValidTill      *time.Time `gorm:"index"`

	Status OfferStatus `gorm:"type:varchar(16);not null;default:'draft';index"`

	// Revisions form an append-only version chain; sent/accepted offers
	// are never edited in place.
	RevisionNumber int   `gorm:"not null;default:1"`
	ParentOfferID  *uint `gorm:"index"`

	AcceptanceDate   *time.Time
	DeclineReason    string
	NegotiationNotes string
	Notes            string

	CreatedBy uint `gorm:"not null"`
	SentDate  *time.Time

	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	ParentOffer *Offer      `gorm:"foreignKey:ParentOfferID" json:"-"`
}

// ActiveStatuses are the offer states that block a second concurrent
// offer on the same application.
func (o *Offer) ActiveOffer() bool {
	switch o.Status {
	case OfferDraft, OfferSent, OfferNegotiating:
		return true
	}
	return false
}
