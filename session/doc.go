// Package session persists the client-side session mirror.
//
// # Mirror
//
// A [Mirror] is a small string key-value store that survives process
// restarts. The session manager writes the fields listed in [Keys] on every
// mutation and reads them once at start-up through [Load]. A missing key
// means the field's zero value: empty token, epoch timestamps, false flags
// and a zero failure count.
//
// Three backends are provided: [MemoryMirror] for tests and ephemeral
// clients, [RedisMirror] for shared deployments, and [FileMirror] for a
// single workstation.
//
// # What this package must NOT do
//
//   - Store identities, passwords or key material.
//   - Import the session manager or permission packages.
//   - Make authorization decisions.
package session
