package model

import (
	"strings"
	"time"
)

// DocumentType identifies one of the legal document chains. Each type has its
// own version chain and its own current pointer.
type DocumentType string

const (
	TypePolicy     DocumentType = "POLICY"
	TypeTerms      DocumentType = "TERMS"
	TypeDisclaimer DocumentType = "DISCLAIMER"
)

// DocumentTypes lists the closed set of document categories.
func DocumentTypes() []DocumentType {
	return []DocumentType{TypePolicy, TypeTerms, TypeDisclaimer}
}

// ParseDocumentType reads a document type from its string form, case
// insensitively. The second return value reports whether the input named a
// known type.
func ParseDocumentType(s string) (DocumentType, bool) {
	switch typ := DocumentType(strings.ToUpper(s)); typ {
	case TypePolicy, TypeTerms, TypeDisclaimer:
		return typ, true
	}
	return "", false
}

// Status is the lifecycle state of a document version. REMOVED is terminal.
type Status string

const (
	StatusCurrent    Status = "CURRENT"
	StatusNotCurrent Status = "NOT_CURRENT"
	StatusRemoved    Status = "REMOVED"
)

// DocumentVersion is a single entry in a document chain. Title, content and
// effective date never change after insert; edits always produce a new row
// linked through PreviousVersionID. Only Status is mutable, and rows are never
// physically deleted.
type DocumentVersion struct {
	ID                string       `gorm:"primaryKey;uuid;not null"`
	Type              DocumentType `gorm:"index;not null"`
	Title             string       `gorm:"not null"`
	Content           string       `gorm:"not null"`
	Compression       string       // the codec used to encode the content at rest
	Version           int64        `gorm:"not null"`
	EffectiveDate     time.Time    `gorm:"not null"`
	Status            Status       `gorm:"index;not null"`
	PreviousVersionID *string      `gorm:"uuid"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
