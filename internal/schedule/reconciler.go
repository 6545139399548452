package schedule

import (
	"sort"

	"github.com/oshokin/wake-scheduler/internal/domain/alarm"
)

// Diff computes the minimal operations that make the pending set equal the
// desired set. Events present in both are left untouched: re-scheduling an
// already-pending event on a live platform notifier is observable to the
// user, so the diff must never include redundant operations.
//
// toCancel is the set of pending identifiers absent from desired, sorted for
// deterministic application order. toSchedule preserves the desired order.
func Diff(desired []alarm.ScheduledEvent, pending map[string]struct{}) (toCancel []string, toSchedule []alarm.ScheduledEvent) {
	desiredIDs := make(map[string]struct{}, len(desired))

	for _, event := range desired {
		desiredIDs[event.ID] = struct{}{}

		if _, ok := pending[event.ID]; !ok {
			toSchedule = append(toSchedule, event)
		}
	}

	for id := range pending {
		if _, ok := desiredIDs[id]; !ok {
			toCancel = append(toCancel, id)
		}
	}

	sort.Strings(toCancel)

	return toCancel, toSchedule
}
