// Package poll drives trees from sources. The host calls Loop.Tick at its own
// cadence; each due registration reads one sample and merges it into its tree.
// Operator edits are written back with Loop.OnApply or dropped with Loop.OnCancel.
//
// The loop owns no timer and no goroutine. Reads never block, so an unreachable
// source only skips its own registration for that tick.
package poll
