// Package config defines the wake-scheduler daemon settings and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the HTTP listen address, the definition store
// selection (JSON file or Redis) and the scheduling tunables (check
// interval, ramp offsets, snooze fallback deadline).
package config
