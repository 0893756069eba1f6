// Package gateway assembles the vitrine edge gatekeeper and runs its
// HTTP server.
//
// # Request flow
//
// Every inbound request is classified by path, in priority order:
//
//  1. /admin and /api/admin go through the admin gate. The bare login
//     page is reachable without a session; everything else in the
//     namespace requires a valid admin_session cookie.
//  2. /assets/, /api/, the site root, and well-known root files pass
//     straight through: API paths to the gateway's own JSON handlers,
//     the rest to the content origin.
//  3. Any other path names a candidate project folder in its first
//     segment. Known encrypted projects run the project gate before the
//     origin is consulted; known projects with declared scripts get the
//     streaming HTML injector applied to the origin's response. Unknown
//     folders pass through untouched.
//
// A store failure during classification degrades to pass-through (logged,
// never surfaced); a store failure during a verification decision inside
// either gate is a denial.
package gateway
