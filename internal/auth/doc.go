// Package auth provides authentication and authorisation for Culvert Core.
//
// It implements a 3-tier role model (VIEWER → ENGINEER → ADMIN) with:
//   - Argon2id password hashing in PHC string format
//   - Self-issued HS256 JWT session tokens carrying the principal's role
//   - A static operation-permission table consulted uniformly (no ad hoc
//     role checks scattered per endpoint)
//   - A SQLite-backed credential store where username and email uniqueness
//     is enforced by the schema, not by check-then-insert
//
// Tokens are stateless: nothing is persisted server-side at issuance, so a
// token remains usable until its expiry even after logout. Logout is a
// client-side discard plus an audit event. Real revocation would need a
// denylist consulted during verification; that is a known capability gap,
// not an oversight.
package auth
