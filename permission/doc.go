// Package permission resolves roles to permission sets.
//
// # Model
//
// Roles form a closed enum ([AllRoles]). Each role maps to a set of
// [Permission] tokens through a static table that must be total over the
// enum. The table is compiled once into 64-bit masks: a [Registry] assigns
// every token a bit, a [RoleManager] ORs those bits per role, and both are
// frozen before the [Resolver] is handed out.
//
// # Architecture boundaries
//
// This package is a pure in-memory data structure with no I/O. The
// [Resolver] answers role-level questions; callers that hold an identity
// check for its presence before asking.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import the session manager or any transport package.
//   - Mutate the table after a Resolver has been built.
package permission
