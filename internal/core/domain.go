package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Single       FilingStatus = "single"
	MarriedJoint FilingStatus = "married_joint"
)

type (
	// FilingStatus is the tax filing status of a household.
	FilingStatus string

	// DatePart selects the unit of Month.Diff.
	DatePart int
)

const (
	Years DatePart = iota
	Months
	Days
)

var (
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidRate         = errors.New("invalid rate")
	ErrInvalidFilingStatus = errors.New("invalid filing status")
)

// ParseFilingStatus accepts the canonical names plus a few common spellings.
func ParseFilingStatus(s string) (FilingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "-", "_"))) {
	case "single", "s":
		return Single, nil
	case "married_joint", "married_filing_jointly", "mfj", "joint":
		return MarriedJoint, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilingStatus, s)
	}
}

func (f FilingStatus) Validate() error {
	switch f {
	case Single, MarriedJoint:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilingStatus, string(f))
	}
}

func (f FilingStatus) String() string {
	return string(f)
}

func (p DatePart) String() string {
	switch p {
	case Years:
		return "years"
	case Months:
		return "months"
	case Days:
		return "days"
	default:
		return fmt.Sprintf("DatePart(%d)", int(p))
	}
}
