package server

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/seatx/internal/models"
)

//go:embed roster.example.toml
var exampleRoster []byte

// RosterEntry assigns one seat to a roll number.
type RosterEntry struct {
	RollNumber string `toml:"roll_number"`
	models.SeatResult
}

// Roster is the seat data the stub backend answers from.
type Roster struct {
	Failing []string      `toml:"failing"`
	Seats   []RosterEntry `toml:"seat"`
}

// DefaultRoster returns the embedded example roster.
func DefaultRoster() *Roster {
	r, err := ParseRoster(exampleRoster)
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded roster: %v", err))
	}
	return r
}

// LoadRoster reads a TOML roster file. An empty path returns [DefaultRoster].
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return DefaultRoster(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes a TOML roster.
func ParseRoster(data []byte) (*Roster, error) {
	var r Roster
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	for i := range r.Seats {
		r.Seats[i].RollNumber = strings.ToUpper(strings.TrimSpace(r.Seats[i].RollNumber))
	}
	return &r, nil
}

// Lookup returns the seats for a roll number on a date (DD/MM/YYYY), never nil.
func (r *Roster) Lookup(rollNumber, date string) []models.SeatResult {
	roll := strings.ToUpper(rollNumber)
	results := []models.SeatResult{}
	for _, e := range r.Seats {
		if e.RollNumber == roll && e.Date == date {
			results = append(results, e.SeatResult)
		}
	}
	return results
}

// Fails reports whether searches for rollNumber end with a backend error.
func (r *Roster) Fails(rollNumber string) bool {
	return slices.ContainsFunc(r.Failing, func(s string) bool { return strings.EqualFold(s, rollNumber) })
}
