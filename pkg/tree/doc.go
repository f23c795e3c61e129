// Package tree renders value.Value samples as a mutable tree whose node identity
// survives refreshes, and tracks operator edits until they are applied or cancelled.
//
// Model.Sync merges a fresh sample into the tree. Nodes are matched by key path
// (field name or array index); a node keeps its identity, and its Expanded flag,
// as long as its key path and type name stay the same. Dirty nodes are never
// overwritten by a merge.
package tree
