// Package mask redacts sensitive personal fields for display.
//
// Every function is total: inputs that do not match the expected shape are
// returned unchanged, and the empty string maps to itself. Masking is not
// encryption; the hidden characters cannot be recovered from the output.
package mask
