// Package gate implements the two access gatekeepers of the vitrine gateway.
//
// # Admin gate
//
// AdminGate protects the /admin pages and the /api/admin API with the
// admin_session cookie. The bare login page stays reachable without a
// session; every admin API call must prove one.
//
// # Project gate
//
// ProjectGate protects encrypted project folders. A grant token arrives
// either as a ?token= query parameter (freshly issued by the password
// verify endpoint) or as a token_<projectID> cookie (a previous grant).
// URL tokens win and are converted into cookies via a redirect that strips
// the parameter, so the one-shot credential becomes a durable session.
//
// Every check returns an explicit Decision: Proceed, Redirect (with an
// optional Set-Cookie), or Deny. There is no "nil response means continue"
// ambiguity.
//
// Both gates fail closed: malformed, tampered, expired or wrong-scope
// tokens are indistinguishable from no token, and a store failure during
// verification is a denial, never a bypass.
package gate
