// Package common contains shared constants and sentinel errors used across
// the bulletin auth server and its CLI client.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the access
// token on outbound requests. Values take the form "Bearer <token>".
const AccessTokenHeaderName = "authorization"

// BearerPrefix precedes the access token in the AccessTokenHeaderName value.
const BearerPrefix = "Bearer "

// ErrorDomain is reported in gRPC error details so clients can tell our
// failures apart from transport-level ones.
const ErrorDomain = "auth.bulletin"
