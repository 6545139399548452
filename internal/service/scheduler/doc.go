// Package scheduler implements the alarm scheduling and wake orchestration
// engine: the command pipeline that expands definitions into scheduled
// events, the reconciliation that keeps the external notification facility's
// pending set consistent, and the snooze/acknowledgment state machine that
// governs what happens between "scheduled" and "acknowledged".
//
// The engine is logically single-threaded per definition: fire callbacks and
// user commands for one definition are serialized behind its ordering lock,
// while different definitions reconcile in parallel because their event
// identifier spaces never intersect.
package scheduler
