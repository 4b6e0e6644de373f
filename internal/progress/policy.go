// Package progress implements the quest progress engine and the objective
// progress tracker: acceptance, per-target counting, completion policy
// evaluation, and cascading failure.
package progress

import (
	"github.com/everthorn/thorny/internal/quest"
	"github.com/google/uuid"
)

// Quest and objective progress statuses.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Event is a single game-server occurrence fed into the tracker.
type Event struct {
	Type      quest.TargetType
	Reference string // namespaced id, e.g. "minecraft:zombie"
	Amount    int
	Mainhand  string // namespaced id of the held item, if any
	X, Y, Z   int
	HasCoords bool
}

// counterFor returns the progress counter for a target UUID, or zero.
func counterFor(counters []quest.TargetProgress, id uuid.UUID) int {
	for _, c := range counters {
		if c.UUID == id {
			return c.Count
		}
	}
	return 0
}

// targetSatisfied reports whether a single target has reached its goal.
func targetSatisfied(t quest.Target, counters []quest.TargetProgress) bool {
	return counterFor(counters, t.UUID) >= t.Count
}

// Satisfied evaluates the objective completion policy:
//
//   - and: every target's counter reaches that target's own goal.
//   - or with target_count: the sum of all counters reaches target_count.
//   - or without target_count: any single target reaches its own goal.
//   - sequential: targets are satisfied in list order; completion means
//     every target, including the last, has reached its goal.
func Satisfied(logic quest.Logic, targetCount *int, targets []quest.Target, counters []quest.TargetProgress) bool {
	if len(targets) == 0 {
		return false
	}
	switch logic {
	case quest.LogicAnd, quest.LogicSequential:
		for _, t := range targets {
			if !targetSatisfied(t, counters) {
				return false
			}
		}
		return true
	case quest.LogicOr:
		if targetCount != nil {
			sum := 0
			for _, c := range counters {
				sum += c.Count
			}
			return sum >= *targetCount
		}
		for _, t := range targets {
			if targetSatisfied(t, counters) {
				return true
			}
		}
		return false
	}
	return false
}

// currentSequentialIndex returns the index of the first unsatisfied target,
// or len(targets) when all are satisfied.
func currentSequentialIndex(targets []quest.Target, counters []quest.TargetProgress) int {
	for i, t := range targets {
		if !targetSatisfied(t, counters) {
			return i
		}
	}
	return len(targets)
}

// gatesAllow checks the mainhand and location customization gates for an
// event. Events failing a gate are ignored, not errors.
func gatesAllow(custom quest.Customizations, evt Event) bool {
	if custom.Mainhand != nil && evt.Mainhand != custom.Mainhand.Item {
		return false
	}
	if custom.Location != nil {
		if !evt.HasCoords {
			return false
		}
		loc := custom.Location
		dx, dy, dz := evt.X-loc.X, evt.Y-loc.Y, evt.Z-loc.Z
		if abs(dx) > loc.HorizontalRange || abs(dz) > loc.HorizontalRange || abs(dy) > loc.VerticalRange {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// applyEvent returns a new counter slice with the event applied under the
// objective's logic. The input slice is never mutated. The second return
// reports whether any counter changed.
//
// Sequential logic only accepts events for the current target; events for
// later (or earlier, already satisfied) targets are ignored.
func applyEvent(def quest.ObjectiveDefinition, counters []quest.TargetProgress, evt Event) ([]quest.TargetProgress, bool) {
	if evt.Amount <= 0 {
		evt.Amount = 1
	}
	if evt.Type != quest.TargetType(def.Row.Type) {
		return counters, false
	}
	if !gatesAllow(def.Customizations, evt) {
		return counters, false
	}

	next := make([]quest.TargetProgress, len(counters))
	copy(next, counters)

	bump := func(id uuid.UUID) bool {
		for i := range next {
			if next[i].UUID == id {
				next[i].Count += evt.Amount
				return true
			}
		}
		return false
	}

	changed := false
	if quest.Logic(def.Row.Logic) == quest.LogicSequential {
		idx := currentSequentialIndex(def.Targets, counters)
		if idx < len(def.Targets) {
			t := def.Targets[idx]
			if t.Reference() == evt.Reference {
				changed = bump(t.UUID)
			}
		}
	} else {
		for _, t := range def.Targets {
			if t.Reference() == evt.Reference {
				if bump(t.UUID) {
					changed = true
				}
			}
		}
	}

	if !changed {
		return counters, false
	}
	return next, true
}

// newTargetProgress builds zero counters mirroring the definition's
// targets. This is the snapshot taken at accept time; later definition
// edits do not alter it.
func newTargetProgress(targets []quest.Target) []quest.TargetProgress {
	counters := make([]quest.TargetProgress, len(targets))
	for i, t := range targets {
		counters[i] = quest.TargetProgress{UUID: t.UUID, Type: t.Type, Count: 0}
	}
	return counters
}

// newCustomizationProgress builds the zero-state customization counters
// for the customizations that track progress.
func newCustomizationProgress(custom quest.Customizations) quest.CustomizationProgress {
	var p quest.CustomizationProgress
	if custom.MaxDeaths != nil {
		p.MaxDeaths = &quest.DeathProgress{Deaths: 0}
	}
	return p
}
