// Package token implements the compact signed credential shared by the
// admin session and project grant trust domains.
//
// A token is "base64(payload).base64(signature)": a minimal JSON claims
// object signed with HMAC-SHA256 under the store's signing secret, with a
// mandatory millisecond expiry. Verification is fully stateless; there is
// no server-side session record to look up or revoke.
//
// The two trust domains share the signing secret but use disjoint payload
// shapes: admin sessions carry "sub", project grants carry "pid". Callers
// scope-check the claim they care about; the codec only proves integrity
// and freshness.
package token
