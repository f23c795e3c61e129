/*
Package vizkit inspects and edits the live state of remote tasks as expandable trees.

A task is a named computation unit published by a runtime: it has typed ports that
stream samples and typed properties that hold configuration. Tasks come and go; vizkit
binds to whatever implementation currently answers to a name and shows each watched
port or task as a tree of records, arrays and scalars. Refreshes keep node identity,
so expansion state survives streaming data, and operator edits stay pending until
they are applied or cancelled.

# Architecture

  - pkg/value: immutable structured values (records, arrays, scalars).
  - pkg/proxy: task, port and property proxies that tolerate tasks appearing and disappearing.
  - pkg/tree: the tree model and the merge algorithm protecting pending edits.
  - pkg/poll: the tick-driven loop feeding trees and committing edits.
  - pkg/adapters: in-memory and Redis task registries.

# Usage

The Inspector wires these together for shells (CLI, HTTP, MCP):

	reg := registry.New()
	insp := vizkit.New(reg)
	_ = insp.Watch(vizkit.Watch{Name: "pose", Task: "arm", Port: "pose"})
	go insp.Run(ctx, time.Second)

	view, _ := insp.Tree("pose")
	_ = insp.Edit("pose", value.Path{"x"}, "1.5")
	report := insp.Apply()

The core owns no timer: Run is a convenience loop around Tick, and hosts with their
own event loop can call Tick directly.
*/
package vizkit
