/*
Package domain contains the core vocabulary shared by the vizkit proxy layer and the tree engine.

It defines how tasks and ports are identified, where an implementation came from, and the
states a reader or writer binding moves through. The package is kept free of I/O so every
other layer can depend on it.

# Key Entities

  - TaskHandle: a task name plus the provenance it must be resolved from (live, logged, any).
  - PortHandle: a (task, port, direction) triple owned by one task proxy.
  - BindingState: Unbound, Valid or Invalid, for lazily created readers and writers.
  - Sentinel errors: the unavailable, read-only, not-editable and shape-mismatch classes.
*/
package domain
