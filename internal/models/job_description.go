package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type JDStatus string

const (
	JDDraft  JDStatus = "draft"
	JDOpen   JDStatus = "open"
	JDOnHold JDStatus = "on_hold"
	JDClosed JDStatus = "closed"
)

func (s JDStatus) Valid() bool {
	switch s {
	case JDDraft, JDOpen, JDOnHold, JDClosed:
		return true
	}
	return false
}

type ContractType string

const (
	ContractFullTime   ContractType = "full_time"
	ContractContract   ContractType = "contract"
	ContractPartTime   ContractType = "part_time"
	ContractTempToPerm ContractType = "temp_to_perm"
)

type JDPriority string

const (
	PriorityLow    JDPriority = "low"
	PriorityMedium JDPriority = "medium"
	PriorityHigh   JDPriority = "high"
	PriorityUrgent JDPriority = "urgent"
)

type JobDescription struct {
	gorm.Model

	ClientID            uint  `gorm:"not null;index"`
	PitchID             *uint `gorm:"index"`
	AssignedRecruiterID *uint `gorm:"index"`

	JDCode      string `gorm:"uniqueIndex;not null"`
	Title       string `gorm:"not null;index"`
	Description string `gorm:"type:text;not null"`

	RequiredSkills  datatypes.JSON
	PreferredSkills datatypes.JSON
	ExperienceMin   *float64
	ExperienceMax   *float64

	Location     string
	WorkMode     string       // remote, hybrid, onsite
	ContractType ContractType `gorm:"type:varchar(16);not null;default:'full_time'"`

	OpenPositions   int `gorm:"not null;default:1"`
	FilledPositions int `gorm:"not null;default:0"`

	Status   JDStatus   `gorm:"type:varchar(16);not null;default:'draft';index"`
	Priority JDPriority `gorm:"type:varchar(16);not null;default:'medium';index"`

	// SLADays is the submission deadline window; inherited from the
	// client's default when unset at creation.
	SLADays *int

	BudgetMin *float64
	BudgetMax *float64
	Currency  string `gorm:"default:'USD'"`
	Benefits  string

	CreatedBy uint `gorm:"not null"`

	Client            Client        `gorm:"foreignKey:ClientID" json:"-"`
	Pitch             *Pitch        `gorm:"foreignKey:PitchID" json:"-"`
	AssignedRecruiter *User         `gorm:"foreignKey:AssignedRecruiterID" json:"-"`
	Applications      []Application `gorm:"foreignKey:JDID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// Open reports whether the JD accepts new applications.
func (jd *JobDescription) Open() bool {
	return jd.Status == JDOpen && jd.RemainingPositions() > 0
}

func (jd *JobDescription) RemainingPositions() int {
	if r := jd.OpenPositions - jd.FilledPositions; r > 0 {
		return r
	}
	return 0
}

func (jd *JobDescription) Editable() bool {
	return jd.Status != JDClosed
}
