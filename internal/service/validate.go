package service

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	minTitleLen   = 4
	maxTitleLen   = 100
	minContentLen = 10
	// minNoticeDays is the minimum advance notice before a new text becomes
	// legally binding. Checked at create and revise time only; reactivating an
	// old version never re-checks its original effective date.
	minNoticeDays = 6
)

func validateDocumentFields(title, content string, effectiveDate time.Time, now time.Time) error {
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		return fmt.Errorf("%w: title must be %d to %d characters, got %d", ErrValidation, minTitleLen, maxTitleLen, n)
	}

	if n := utf8.RuneCountInString(content); n < minContentLen {
		return fmt.Errorf("%w: content must be at least %d characters, got %d", ErrValidation, minContentLen, n)
	}

	if notice := now.AddDate(0, 0, minNoticeDays); effectiveDate.Before(notice) {
		return fmt.Errorf("%w: effective date must be at least %d days out", ErrValidation, minNoticeDays)
	}

	return nil
}
