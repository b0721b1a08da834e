package models

import "time"

// BaseModel is shared by records that are never soft-deleted
// (audit rows, child records owned by a soft-deletable parent).
type BaseModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
