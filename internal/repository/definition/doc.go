// Package definition provides persistence for alarm definitions behind a
// small key-value Repository contract, with a JSON-file backend for
// single-device setups and a Redis backend for deployments that already run
// one.
package definition
