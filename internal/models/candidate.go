package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CandidateSource string

const (
	SourcePortal   CandidateSource = "portal"
	SourceReferral CandidateSource = "referral"
	SourceDirect   CandidateSource = "direct"
	SourceVendor   CandidateSource = "vendor"
	SourceLinkedIn CandidateSource = "linkedin"
	SourceOther    CandidateSource = "other"
)

type Candidate struct {
	gorm.Model

	FirstName string `gorm:"not null;index"`
	LastName  string `gorm:"not null;index"`
	Email     string `gorm:"uniqueIndex;not null"`
	Phone     string

	CurrentCompany     string
	CurrentDesignation string
	TotalExperience    *float64
	RelevantExperience *float64

	Skills         datatypes.JSON
	Certifications datatypes.JSON

	ResumePath         string
	ResumeOriginalName string

	CurrentLocation    string
	PreferredLocations datatypes.JSON
	WillingToRelocate  bool

	NoticePeriodDays *int
	CurrentCTC       *float64
	ExpectedCTC      *float64
	Currency         string `gorm:"default:'USD'"`

	Source        CandidateSource `gorm:"type:varchar(16);not null;default:'direct';index"`
	SourceDetails string

	LinkedInURL string
	Notes       string
	Tags        datatypes.JSON

	CreatedBy uint `gorm:"not null"`

	Applications []Application `gorm:"foreignKey:CandidateID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (c *Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}
