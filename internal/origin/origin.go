// Package origin holds the seeker's origin record captured by the login
// form. A Record is a value: once captured it is replaced, never edited.
package origin

import (
	"errors"
	"fmt"
	"strings"

	"astrocyber/internal/keyderive"
)

// ErrMissingField is returned when a required form field is blank.
var ErrMissingField = errors.New("origin: missing field")

// Record is the identity and birth data a seeker submits.
type Record struct {
	Name      string
	BirthDate keyderive.Date
	BirthTime keyderive.TimeOfDay
	Place     string
}

// New validates the raw login form fields and builds a Record. dob is
// YYYY-MM-DD and clock is HH:MM. Malformed dates or times return an
// error wrapping keyderive.ErrInvalidInput.
func New(name, dob, clock, place string) (Record, error) {
	name = strings.TrimSpace(name)
	place = strings.TrimSpace(place)
	if name == "" {
		return Record{}, fmt.Errorf("%w: name", ErrMissingField)
	}
	if place == "" {
		return Record{}, fmt.Errorf("%w: place of origin", ErrMissingField)
	}

	date, err := keyderive.ParseDate(dob)
	if err != nil {
		return Record{}, err
	}
	t, err := keyderive.ParseTime(clock)
	if err != nil {
		return Record{}, err
	}

	return Record{Name: name, BirthDate: date, BirthTime: t, Place: place}, nil
}

// SecretKey derives the record's cosmic key.
func (r Record) SecretKey() (string, error) {
	return keyderive.Derive(r.BirthDate, r.BirthTime)
}
