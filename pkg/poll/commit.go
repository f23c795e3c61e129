package poll

import (
	"fmt"

	"github.com/aretw0/vizkit/pkg/tree"
	"github.com/aretw0/vizkit/pkg/value"
)

// CommitFailure is a leaf that could not be written. It stays dirty.
type CommitFailure struct {
	Registration string
	Path         value.Path
	Err          error
}

func (f CommitFailure) Error() string {
	return fmt.Sprintf("commit %s %s: %v", f.Registration, f.Path, f.Err)
}

func (f CommitFailure) Unwrap() error { return f.Err }

// CommitReport summarizes an OnApply.
type CommitReport struct {
	Written int
	Failed  []CommitFailure
}

// OK reports whether every pending leaf was written.
func (r CommitReport) OK() bool { return len(r.Failed) == 0 }

// OnApply writes every pending leaf through its registration source, one write
// per leaf in tree order. Written leaves are resolved; failed ones keep their
// dirty flag and pending value.
func (l *Loop) OnApply() CommitReport {
	var rep CommitReport
	for _, name := range l.order {
		r := l.regs[name]
		leaves := r.model.PendingLeaves()
		if len(leaves) == 0 {
			continue
		}
		done := make([]*tree.Node, 0, len(leaves))
		for _, leaf := range leaves {
			path := leaf.Path()
			err := r.source.Write(path, leaf.Value())
			if l.hooks.OnCommit != nil {
				l.hooks.OnCommit(name, path, err)
			}
			if err != nil {
				l.logger.Warn("failed to commit edit", "name", name, "path", path.String(), "err", err)
				rep.Failed = append(rep.Failed, CommitFailure{Registration: name, Path: path, Err: err})
				continue
			}
			done = append(done, leaf)
			rep.Written++
		}
		r.model.Resolve(done)
	}
	l.logger.Info("applied edits", "written", rep.Written, "failed", len(rep.Failed))
	return rep
}

// OnCancel drops every pending edit without writing. The next tick restores the
// source values.
func (l *Loop) OnCancel() {
	for _, name := range l.order {
		l.regs[name].model.ClearAll()
	}
	l.logger.Info("cancelled edits")
}
