package models

import "gorm.io/gorm"

type ClientStatus string

const (
	ClientProspect ClientStatus = "prospect"
	ClientActive   ClientStatus = "active"
	ClientInactive ClientStatus = "inactive"
)

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientProspect, ClientActive, ClientInactive:
		return true
	}
	return false
}

type Client struct {
	gorm.Model

	CompanyName string `gorm:"not null;index"`
	Industry    string
	Website     string
	Address     string

	Status ClientStatus `gorm:"type:varchar(16);not null;default:'prospect';index"`

	AccountManagerID *uint `gorm:"index"`

	// DefaultSLADays seeds sla_days on new JDs for this client.
	DefaultSLADays *int

	CreatedBy uint `gorm:"not null"`

	// Relationships
	AccountManager  *User            `gorm:"foreignKey:AccountManagerID"`
	Contacts        []ClientContact  `gorm:"foreignKey:ClientID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Pitches         []Pitch          `gorm:"foreignKey:ClientID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	JobDescriptions []JobDescription `gorm:"foreignKey:ClientID"`
}

type ClientContact struct {
	BaseModel

	ClientID    uint   `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Email       string `gorm:"not null"`
	Phone       string
	Designation string
	IsPrimary   bool `gorm:"not null;default:false"`

	Client Client `gorm:"foreignKey:ClientID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
