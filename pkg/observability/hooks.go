package observability

import (
	"log/slog"

	"github.com/aretw0/vizkit/pkg/poll"
	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
)

// LogHooks logs loop activity. Samples that changed nothing are not logged.
func LogHooks(logger *slog.Logger) poll.Hooks {
	return poll.Hooks{
		OnSample: func(name string, ch *tree.Changes) {
			if ch.IsEmpty() {
				return
			}
			logger.Debug("sample merged",
				"registration", name,
				"added", len(ch.Added),
				"updated", len(ch.Updated),
				"removed", len(ch.Removed),
				"retained", len(ch.Retained),
			)
		},
		OnMiss: func(name string) {
			logger.Debug("no sample", "registration", name)
		},
		OnCommit: func(name string, path value.Path, err error) {
			if err != nil {
				logger.Warn("edit rejected", "registration", name, "path", path.String(), "err", err)
				return
			}
			logger.Info("edit committed", "registration", name, "path", path.String())
		},
	}
}

// Chain combines hooks; each callback runs the non-nil callbacks in order.
func Chain(hooks ...poll.Hooks) poll.Hooks {
	var out poll.Hooks
	for _, h := range hooks {
		h := h
		if h.OnSample != nil {
			prev := out.OnSample
			out.OnSample = func(name string, ch *tree.Changes) {
				if prev != nil {
					prev(name, ch)
				}
				h.OnSample(name, ch)
			}
		}
		if h.OnMiss != nil {
			prev := out.OnMiss
			out.OnMiss = func(name string) {
				if prev != nil {
					prev(name)
				}
				h.OnMiss(name)
			}
		}
		if h.OnPendingEdits != nil {
			prev := out.OnPendingEdits
			out.OnPendingEdits = func(pending bool) {
				if prev != nil {
					prev(pending)
				}
				h.OnPendingEdits(pending)
			}
		}
		if h.OnLayout != nil {
			prev := out.OnLayout
			out.OnLayout = func() {
				if prev != nil {
					prev()
				}
				h.OnLayout()
			}
		}
		if h.OnCommit != nil {
			prev := out.OnCommit
			out.OnCommit = func(name string, path value.Path, err error) {
				if prev != nil {
					prev(name, path, err)
				}
				h.OnCommit(name, path, err)
			}
		}
	}
	return out
}
