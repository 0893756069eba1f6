// Package webapi implements the gateway's JSON endpoints: admin login,
// project password verification, the public project listing, and the
// admin CRUD surface for projects, the script library, and config values.
//
// The handlers under /api/admin do not check the session themselves; the
// request router places the admin gate in front of the whole /api/admin
// namespace, so an unauthenticated request never reaches them.
package webapi
