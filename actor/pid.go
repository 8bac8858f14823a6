package actor

// PID (Process ID) is a unique reference to a running actor instance.
type PID struct {
	ID string
}

// String returns the string representation of the PID.
func (pid *PID) String() string {
	if pid == nil {
		return "<nil>"
	}
	return pid.ID
}

// MonitorHandle identifies one installed Monitor so it can be
// disambiguated from others watching the same target, and so it can
// be demonitored.
type MonitorHandle struct {
	id string
}

func (h *MonitorHandle) String() string {
	if h == nil {
		return "<nil>"
	}
	return h.id
}
