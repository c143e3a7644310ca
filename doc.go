// Package auth implements a stateless token authentication service:
// account registration, credential verification, JWT issuance and
// validation, and bearer token middleware for protected routes.
//
// Tokens:
//   - TokenService signs HS256 JWTs with a key fixed at construction and
//     validates them with distinct expired, invalid, and malformed
//     results so callers can branch on the failure kind. The clock is
//     injectable for deterministic expiry tests.
//
// Credentials:
//   - Users are stored through a Bun backed repository with bcrypt
//     password hashes. Failed logins are tracked and throttled inside a
//     cool down window; verification failures collapse into a single
//     generic error so responses cannot reveal which accounts exist.
//
// HTTP surface:
//   - RegisterAuthRoutes mounts the JSON API (register, login, me,
//     logout, password reset) on a go-router router. ProtectedRoute
//     gates routes behind bearer extraction, validation, and subject
//     resolution, rejecting with reason specific 401 responses.
package auth
