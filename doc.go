// Package identity provides credential issuance and session lifecycle
// primitives: an RS256 token codec, an authentication service, and two
// interchangeable storage backends.
//
// Storage contracts:
//   - UserStore and SessionStore are the only seams the Auther depends on.
//     The memory package ships a mutex-guarded reference store, the
//     repository package a Bun-backed relational adapter. Pick one at
//     composition time; the service never branches on which backend is
//     active.
//
// Sessions and revocation:
//   - A refresh token is honored only while its Session row exists.
//     Deleting the row is the sole revocation mechanism; cryptographic
//     validity alone is never sufficient. Expired sessions are swept
//     inline during login and refresh, never by a background job.
//
// Errors:
//   - Every store failure is re-mapped once at the Auther boundary into a
//     structured go-errors value with a stable text code. Corrupted-store
//     and unexpected faults are logged with full detail and surfaced with
//     a generic message.
package identity
