// Package backend is the HTTP client for the hosted backend: GoTrue-style
// authentication endpoints under /auth/v1 and PostgREST tables under
// /rest/v1.
//
// Client issues individual requests. Auth layers an SDK-like session
// manager on top: it persists the session in a store.Store, refreshes
// expired tokens, and publishes AuthEvents to subscribers. Query is a small
// PostgREST builder used by the catalog repositories.
package backend
