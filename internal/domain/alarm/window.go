package alarm

import "time"

// WakeWindowPlan is the resolver's intermediate artifact: the ordered check
// instants inside the smart-wake window plus the forced fire at the original
// target. It is consumed only by the event materializer.
type WakeWindowPlan struct {
	// Checks are the early, lower-intensity attempt instants in ascending order.
	Checks []time.Time
	// ForcedFire equals the original target instant and always fires if no
	// check is acted upon.
	ForcedFire time.Time
	// Clamped reports that the requested window would have overlapped the
	// previous occurrence and was shortened.
	Clamped bool
	// AppliedWindow is the window length actually used after any clamp.
	AppliedWindow time.Duration
	// Preferred is the index into Checks nearest an advisory wake hint, or -1
	// when no hint was supplied.
	Preferred int
}
