// Package memory provides in-process task implementations: live tasks, logged tasks
// replayed step by step, and a bridging task that re-exports ports of other tasks.
//
// They satisfy ports.Task and are usually published through registry.Registry. Tests
// and demos use them in place of a real runtime.
package memory
