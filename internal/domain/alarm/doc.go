// Package alarm contains core domain types for the wake scheduling logic.
//
// It defines Definition (the user-authored alarm intent), ScheduledEvent
// (one concrete fire instant derived from a definition), SnoozeSession (the
// runtime snooze/acknowledgment state machine) and WakeWindowPlan (the
// smart-wake resolver's intermediate artifact), with Clone helpers to avoid
// leaking internal references.
package alarm
