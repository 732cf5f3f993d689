// Package auth authenticates callers of the capability HTTP API and decides
// which capabilities they may invoke.
//
// Two authenticators are provided: API keys, stored only as BLAKE3
// digests, and HMAC-signed JWT bearer tokens. Chain tries them in order.
// RoleAuthorizer maps roles to the capability names they may call.
package auth
