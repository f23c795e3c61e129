package domain

import "errors"

// ErrUnavailable is returned when a task or port cannot currently be resolved.
// Reads never return it; they report the absence of a value instead.
var ErrUnavailable = errors.New("task or port unavailable")

// ErrReadOnly is returned when writing to a port or property that refuses writers,
// such as the streams of a logged task.
var ErrReadOnly = errors.New("read only")

// ErrNotEditable is returned when an edit targets a node that cannot be written back.
var ErrNotEditable = errors.New("not editable")

// ErrShapeMismatch signals a programming-contract violation: a value was merged into a
// tree node whose type name matches but whose shape (scalar, record, array) differs.
var ErrShapeMismatch = errors.New("value shape does not match tree node")

// ErrNotFound is returned when a named registration, node or role does not exist.
var ErrNotFound = errors.New("not found")
