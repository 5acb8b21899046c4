package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/seatx/internal/shared"
)

// MinRollNumberLength is the shortest roll number accepted before submitting a search.
const MinRollNumberLength = 10

const (
	isoDateLayout     = "2006-01-02"
	displayDateLayout = "02/01/2006"
)

// ValidateSearch checks a roll number and exam date and returns a normalized [SearchRequest].
//
// The date may be given as YYYY-MM-DD or DD/MM/YYYY and is normalized to YYYY-MM-DD.
func ValidateSearch(rollNumber, date string) (SearchRequest, error) {
	roll := strings.ToUpper(strings.TrimSpace(rollNumber))
	if roll == "" {
		return SearchRequest{}, fmt.Errorf("%w: please enter your roll number", shared.ErrInvalidInput)
	}
	if len(roll) < MinRollNumberLength {
		return SearchRequest{}, fmt.Errorf("%w: please enter a valid roll number", shared.ErrInvalidInput)
	}

	date = strings.TrimSpace(date)
	if date == "" {
		return SearchRequest{}, fmt.Errorf("%w: please select an exam date", shared.ErrInvalidInput)
	}

	iso, err := NormalizeDate(date)
	if err != nil {
		return SearchRequest{}, err
	}
	return SearchRequest{RollNumber: roll, Date: iso}, nil
}

// NormalizeDate converts YYYY-MM-DD or DD/MM/YYYY to YYYY-MM-DD.
func NormalizeDate(date string) (string, error) {
	if t, err := time.Parse(isoDateLayout, date); err == nil {
		return t.Format(isoDateLayout), nil
	}
	if t, err := time.Parse(displayDateLayout, date); err == nil {
		return t.Format(isoDateLayout), nil
	}
	return "", fmt.Errorf("%w: invalid date format %q", shared.ErrInvalidInput, date)
}

// DisplayDate converts a date accepted by [NormalizeDate] to DD/MM/YYYY.
func DisplayDate(date string) (string, error) {
	iso, err := NormalizeDate(date)
	if err != nil {
		return "", err
	}
	t, _ := time.Parse(isoDateLayout, iso)
	return t.Format(displayDateLayout), nil
}
