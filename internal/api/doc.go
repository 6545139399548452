// Package api exposes the scheduling engine over HTTP.
// It is a thin transport layer: requests are decoded, handed to the
// service, and the outcome is rendered as JSON. No scheduling decisions
// are made here.
package api
