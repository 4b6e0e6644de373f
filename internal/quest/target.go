// Package quest provides quest, objective and reward definition stores,
// and the target/customization type registry they share with the
// progress engine.
package quest

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/everthorn/thorny/internal/apperr"
	"github.com/google/uuid"
)

// TargetType discriminates the kinds of countable objective targets.
type TargetType string

const (
	TargetKill      TargetType = "kill"
	TargetMine      TargetType = "mine"
	TargetEncounter TargetType = "encounter"
)

// Logic is the policy for combining an objective's targets.
type Logic string

const (
	LogicAnd        Logic = "and"
	LogicOr         Logic = "or"
	LogicSequential Logic = "sequential"
)

// namespacedID matches game identifiers like "minecraft:zombie".
var namespacedID = regexp.MustCompile(`^[a-z]+:[a-z_0-9]+$`)

// Target is one countable condition within an objective, tagged by Type.
// Exactly one of Entity, Block or ScriptID is set, matching the type.
type Target struct {
	UUID     uuid.UUID  `json:"target_uuid"`
	Type     TargetType `json:"target_type"`
	Count    int        `json:"count"`
	Entity   string     `json:"entity,omitempty"`
	Block    string     `json:"block,omitempty"`
	ScriptID string     `json:"script_id,omitempty"`
}

// Reference returns the namespaced identifier the target counts against.
func (t Target) Reference() string {
	switch t.Type {
	case TargetKill:
		return t.Entity
	case TargetMine:
		return t.Block
	case TargetEncounter:
		return t.ScriptID
	}
	return ""
}

// Validate checks the tagged-union shape of a single target.
func (t Target) Validate() error {
	switch t.Type {
	case TargetKill:
		if t.Entity == "" || t.Block != "" || t.ScriptID != "" {
			return apperr.Invalid("target", "kill target must set entity only")
		}
	case TargetMine:
		if t.Block == "" || t.Entity != "" || t.ScriptID != "" {
			return apperr.Invalid("target", "mine target must set block only")
		}
	case TargetEncounter:
		if t.ScriptID == "" || t.Entity != "" || t.Block != "" {
			return apperr.Invalid("target", "encounter target must set script_id only")
		}
	default:
		return apperr.Invalid("target", "unknown target_type %q", t.Type)
	}
	if !namespacedID.MatchString(t.Reference()) {
		return apperr.Invalid("target", "reference %q is not a namespaced id", t.Reference())
	}
	if t.Count < 1 {
		return apperr.Invalid("target", "count must be >= 1, got %d", t.Count)
	}
	return nil
}

// TargetProgress is the counting counterpart of a Target, stored inside an
// objective progress row. Count here is progress made, not the goal.
type TargetProgress struct {
	UUID  uuid.UUID  `json:"target_uuid"`
	Type  TargetType `json:"target_type"`
	Count int        `json:"count"`
}

// EncodeTargets serializes targets for the objective row's blob column.
func EncodeTargets(targets []Target) (string, error) {
	data, err := json.Marshal(targets)
	if err != nil {
		return "", fmt.Errorf("quest: encode targets: %w", err)
	}
	return string(data), nil
}

// DecodeTargets parses and validates the targets blob of an objective row.
// Unknown discriminators are rejected with a validation error.
func DecodeTargets(raw string) ([]Target, error) {
	var targets []Target
	if err := json.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, apperr.Invalid("target", "malformed targets payload: %v", err)
	}
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// EncodeTargetProgress serializes per-target counters for the progress row.
func EncodeTargetProgress(progress []TargetProgress) (string, error) {
	data, err := json.Marshal(progress)
	if err != nil {
		return "", fmt.Errorf("quest: encode target progress: %w", err)
	}
	return string(data), nil
}

// DecodeTargetProgress parses the per-target counters of a progress row.
func DecodeTargetProgress(raw string) ([]TargetProgress, error) {
	var progress []TargetProgress
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return nil, apperr.Invalid("target_progress", "malformed payload: %v", err)
	}
	return progress, nil
}
