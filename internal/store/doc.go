// Package store provides persistence for the vitrine gateway.
//
// # Overview
//
// The request pipeline consumes the read-only GatekeeperStore view: admin
// configuration, project lookup by folder path, and script library reads.
// All writes belong to the admin API and the bootstrap command, which use
// the wider AdminStore surface.
//
// # Implementation
//
// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no cgo).
// The schema is created automatically on first open:
//
//   - projects: published folders with access-control and injection settings
//   - js_library: script bodies available for injection
//   - config: key/value table holding the admin account, the token signing
//     secret, and listing preferences
//
// # Stored JSON fields
//
// Project password lists, extra buttons, and script-id lists are stored as
// JSON text columns. Malformed stored JSON decodes to the field's empty
// value; a bad row must degrade, never abort a request.
package store
