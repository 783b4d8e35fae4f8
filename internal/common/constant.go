// Package common contains shared constants and sentinel errors used across
// gophstudy components.
package common

// DefaultUserID is the user the client studies as when none is configured.
const DefaultUserID = "default"

// RequestIDHeaderName is the HTTP header carrying a per-request identifier
// on outbound calls to the scheduling service.
const RequestIDHeaderName = "X-Request-ID"
