// Package redis publishes and resolves tasks through Redis, so an inspector can reach
// tasks running in other processes.
//
// A Publisher runs next to the task and announces it; a Registry runs in the
// inspector and implements ports.TaskRegistry. Keys (prefix "vizkit:" by default):
//
//	<prefix>index                      ZSET of task names scored by expiry
//	<prefix>task:<name>                HASH id, state, provenance
//	<prefix>task:<name>:ports          HASH port -> "<direction> <type>"
//	<prefix>task:<name>:props          HASH property -> type
//	<prefix>sample:<name>:<port>       latest raw sample
//	<prefix>seq:<name>:<port>          sample counter
//	<prefix>prop:<name>:<property>     raw property value
//
// Lookups go through a circuit breaker: when Redis keeps failing, tasks resolve as
// unavailable without waiting for the network.
package redis
