package quest

import (
	"encoding/json"
	"fmt"

	"github.com/everthorn/thorny/internal/apperr"
)

// Customizations is an optional-field bag of objective modifiers. Any
// subset may be present at once; it is not a tagged union.
type Customizations struct {
	Mainhand  *MainhandCustomization  `json:"mainhand,omitempty"`
	Location  *LocationCustomization  `json:"location,omitempty"`
	Timer     *TimerCustomization     `json:"timer,omitempty"`
	MaxDeaths *MaxDeathsCustomization `json:"maximum_deaths,omitempty"`
}

// MainhandCustomization requires a specific held item for events to count.
type MainhandCustomization struct {
	Item string `json:"item"`
}

// LocationCustomization restricts counting to a cylinder around a point.
type LocationCustomization struct {
	X               int `json:"x"`
	Y               int `json:"y"`
	Z               int `json:"z"`
	HorizontalRange int `json:"horizontal_range"`
	VerticalRange   int `json:"vertical_range"`
}

// TimerCustomization bounds the objective's duration. With Fail set, the
// objective (and its quest) fails once Seconds elapse past start.
type TimerCustomization struct {
	Seconds int  `json:"seconds"`
	Fail    bool `json:"fail"`
}

// MaxDeathsCustomization caps player deaths during the objective. With
// Fail set, exceeding the cap fails the objective and its quest.
type MaxDeathsCustomization struct {
	Deaths int  `json:"deaths"`
	Fail   bool `json:"fail"`
}

// IsZero reports whether no customization is present.
func (c Customizations) IsZero() bool {
	return c.Mainhand == nil && c.Location == nil && c.Timer == nil && c.MaxDeaths == nil
}

// Validate checks each present customization.
func (c Customizations) Validate() error {
	if c.Mainhand != nil && !namespacedID.MatchString(c.Mainhand.Item) {
		return apperr.Invalid("customization", "mainhand item %q is not a namespaced id", c.Mainhand.Item)
	}
	if c.Location != nil && (c.Location.HorizontalRange < 0 || c.Location.VerticalRange < 0) {
		return apperr.Invalid("customization", "location ranges must be non-negative")
	}
	if c.Timer != nil && c.Timer.Seconds < 1 {
		return apperr.Invalid("customization", "timer seconds must be >= 1, got %d", c.Timer.Seconds)
	}
	if c.MaxDeaths != nil && c.MaxDeaths.Deaths < 0 {
		return apperr.Invalid("customization", "maximum_deaths cap must be non-negative, got %d", c.MaxDeaths.Deaths)
	}
	return nil
}

// CustomizationProgress mirrors the counting customizations of an
// objective. Timer state needs no counter; its deadline is derived from
// the objective's start time.
type CustomizationProgress struct {
	MaxDeaths *DeathProgress `json:"maximum_deaths,omitempty"`
}

// DeathProgress counts deaths during an objective.
type DeathProgress struct {
	Deaths int `json:"deaths"`
}

// EncodeCustomizations serializes the bag for the objective row. An empty
// bag encodes as the empty string.
func EncodeCustomizations(c Customizations) (string, error) {
	if c.IsZero() {
		return "", nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("quest: encode customizations: %w", err)
	}
	return string(data), nil
}

// DecodeCustomizations parses and validates a customizations blob.
func DecodeCustomizations(raw string) (Customizations, error) {
	var c Customizations
	if raw == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return c, apperr.Invalid("customization", "malformed payload: %v", err)
	}
	if err := c.Validate(); err != nil {
		return Customizations{}, err
	}
	return c, nil
}

// EncodeCustomizationProgress serializes customization counters for the
// progress row. Empty progress encodes as the empty string.
func EncodeCustomizationProgress(p CustomizationProgress) (string, error) {
	if p.MaxDeaths == nil {
		return "", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("quest: encode customization progress: %w", err)
	}
	return string(data), nil
}

// DecodeCustomizationProgress parses the customization counters blob.
func DecodeCustomizationProgress(raw string) (CustomizationProgress, error) {
	var p CustomizationProgress
	if raw == "" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, apperr.Invalid("customization_progress", "malformed payload: %v", err)
	}
	return p, nil
}
