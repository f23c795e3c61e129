// Package proxy binds symbolic task and port names to whatever implementation the
// task registry currently offers.
//
// Nothing is cached across operations: every call resolves the task again, so a
// proxy survives its task disappearing, restarting or being replaced by a logged
// replay. Unavailability is a state, not an error. Readers report Invalid and yield
// no value; only writes return domain.ErrUnavailable.
//
//	arm := proxy.NewTask("arm", reg)
//	r := arm.Port("pose").Reader()
//	if v, ok := r.Read(); ok {
//	    fmt.Println(v)
//	}
package proxy
