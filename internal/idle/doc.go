// Package idle implements the single-shot inactivity timer used by the
// session manager, over a replaceable clock.
package idle
