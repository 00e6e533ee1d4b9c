package culvert

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the registry.
var (
	ErrNotFound           = errors.New("culvert not found")
	ErrSerialNumberExists = errors.New("serial number already registered")
)

// ValidationError describes a rejected field on a culvert record.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Rating bounds for the four condition scores.
const (
	minRating = 0.0
	maxRating = 10.0
)

// Culvert is a registered drainage structure.
//
// Diameter and Length stay free-text: field surveys record values like
// "1.5m" or "2x1200mm" that don't normalise to a single number.
type Culvert struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	Coordinates string `json:"coordinates"`
	Road        string `json:"road"`

	SerialNumber     string `json:"serial_number"`
	PipeType         string `json:"pipe_type"`
	Material         string `json:"material"`
	Diameter         string `json:"diameter"`
	Length           string `json:"length"`
	HeadType         string `json:"head_type"`
	FoundationType   string `json:"foundation_type"`
	WorkType         string `json:"work_type"`
	ConstructionYear string `json:"construction_year"`

	LastRepairDate     *time.Time `json:"last_repair_date,omitempty"`
	LastInspectionDate *time.Time `json:"last_inspection_date,omitempty"`

	StrengthRating         *float64 `json:"strength_rating,omitempty"`
	SafetyRating           *float64 `json:"safety_rating,omitempty"`
	MaintainabilityRating  *float64 `json:"maintainability_rating,omitempty"`
	GeneralConditionRating *float64 `json:"general_condition_rating,omitempty"`

	Defects []string `json:"defects"`
	Photos  []string `json:"photos"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
