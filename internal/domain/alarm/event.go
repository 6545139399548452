package alarm

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Role distinguishes the purpose of a scheduled event within one occurrence.
type Role string

const (
	// RoleGradualStep is a quieter pre-alarm step before the primary instant.
	RoleGradualStep Role = "gradual-step"
	// RolePrimary is the main fire at the resolved occurrence instant.
	RolePrimary Role = "primary"
	// RoleBackup is the guaranteed full-intensity fallback fire.
	RoleBackup Role = "backup"
)

// eventIDLength is the number of hex characters kept from the digest.
const eventIDLength = 16

// Payload carries everything the rendering side needs at fire time.
type Payload struct {
	// Sound selects what to play.
	Sound SoundProfile `json:"sound"`
	// Volume is the loudness for this specific event, already role-scaled.
	Volume int `json:"volume"`
	// Vibration enables haptics for this event.
	Vibration bool `json:"vibration"`
}

// ScheduledEvent is one concrete fire instant materialized from a definition
// for a single occurrence.
type ScheduledEvent struct {
	// ID is derived deterministically from the definition, role and occurrence
	// date, so recomputing the same inputs always yields the same identifier.
	ID string `json:"id"`
	// DefinitionID points back at the originating definition.
	DefinitionID string `json:"definition_id"`
	// Role is the event's purpose within the occurrence.
	Role Role `json:"role"`
	// Step numbers gradual steps from 1 in firing order. Zero for other roles.
	Step int `json:"step,omitempty"`
	// FireAt is the absolute instant the event should fire.
	FireAt time.Time `json:"fire_at"`
	// Payload is what the renderer receives when the event fires.
	Payload Payload `json:"payload"`
}

// RoleLabel renders the role in its canonical string form, including the
// step index for gradual steps (e.g. "gradual-step[2]").
func (e *ScheduledEvent) RoleLabel() string {
	if e.Role == RoleGradualStep {
		return fmt.Sprintf("%s[%d]", RoleGradualStep, e.Step)
	}

	return string(e.Role)
}

// EventID computes the deterministic identifier for one event of an
// occurrence. The occurrence date is taken in the instant's own location so
// a day rollover changes every identifier of the definition.
func EventID(definitionID, roleLabel string, occurrence time.Time) string {
	sum := sha256.Sum256([]byte(definitionID + "|" + roleLabel + "|" + occurrence.Format("2006-01-02")))

	return hex.EncodeToString(sum[:])[:eventIDLength]
}
