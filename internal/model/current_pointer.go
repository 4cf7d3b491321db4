package model

import "time"

// CurrentPointer records which version of a document type is in legal effect.
// There is at most one row per type and it is only ever written through the
// store's compare-and-swap.
type CurrentPointer struct {
	Type                 DocumentType `gorm:"primaryKey"`
	CurrentVersionID     string       `gorm:"uuid;not null"`
	CurrentVersionNumber int64        `gorm:"not null"`
	UpdatedAt            time.Time
}
