// Package schedule holds the pure scheduling computations: expanding a
// definition into its next occurrence, resolving the smart-wake window,
// materializing the deterministic scheduled-event set for one occurrence,
// and diffing a desired set against the notifier's pending set.
//
// Nothing in this package has side effects or reads the wall clock; every
// function is a deterministic function of its inputs, which is what makes
// reconciliation against the external notifier safe to re-run at any time.
package schedule
