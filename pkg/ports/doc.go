/*
Package ports defines the driven ports (interfaces) of vizkit.

These interfaces decouple the proxy layer and the poll loop from whatever supplies tasks
and samples: an in-process registry, a log replay, or a remote name service.

# Key Interfaces

  - TaskRegistry: finds the implementation currently answering to a task name.
  - Task, Port, Property: the capability set shared by live, logged and bridging tasks.
  - Reader, Writer: non-blocking raw sample transport bound to one port instance.
  - Codec: converts raw samples to and from value.Value.
  - Bridge: a task able to re-export another task's port (the port-proxy role).

Every lookup is expected to be non-blocking and free of side effects. Absence is reported
with a false boolean, never with an error.
*/
package ports
