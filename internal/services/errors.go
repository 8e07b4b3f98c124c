package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks lookups for ids that do not exist (or no longer exist).
	ErrNotFound = errors.New("not found")
	// ErrSourceUnavailable marks a backing file that is missing or unreadable at
	// content-read time. Distinct from parse errors: never cached as empty.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrClassification marks unreadable archive metadata. Recovered locally by
	// treating the book as not an omnibus.
	ErrClassification = errors.New("classification error")
	// ErrExtraction marks a missing or malformed navigation document. Recovered
	// locally by leaving the persisted virtual book set untouched.
	ErrExtraction = errors.New("extraction error")
	// ErrPersistence marks a failed transaction; the whole run fails and is
	// eligible for retry on the next scan event.
	ErrPersistence = errors.New("persistence error")
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration discovered at run time.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification via errors.Is.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrPersistence
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
