// Package password grades and generates passwords against a configurable
// policy and hashes them for storage.
//
// # Policy evaluation
//
// [Validate] scores a candidate from 0 to 100 and lists every rule it
// breaks. Violations, not the score, decide validity. The score only picks
// the [Strength] tier shown to the user.
//
// # Hashing
//
// Two hashers are provided. [HashWithSalt] is the lightweight salted digest
// used for client-side comparisons; the salt is generated once and stored
// next to the digest. [Argon2] produces PHC strings for credential storage:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import session or permission packages.
//   - Log plaintext passwords.
package password
