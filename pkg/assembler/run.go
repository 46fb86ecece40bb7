package assembler

// runTracker owns the lifecycle of one request/response exchange. At most
// one run is open at a time; the bracketing markers must carry matching ids.
type runTracker struct {
	runID    string
	threadID string
	active   bool
}

// openRun starts a run. A run-started while another run is open is a
// structural impossibility.
func (r *runTracker) openRun(runID, threadID string) error {
	if r.active {
		return &ProtocolViolationError{
			Reason: "run " + runID + " started while run " + r.runID + " is open",
			RunID:  runID,
		}
	}
	r.runID = runID
	r.threadID = threadID
	r.active = true
	return nil
}

// closeRun finishes the open run. The id must match.
func (r *runTracker) closeRun(runID string) error {
	if !r.active {
		return &ProtocolViolationError{Reason: "no run is open", RunID: runID}
	}
	if runID != "" && runID != r.runID {
		return &ProtocolViolationError{
			Reason: "finish for run " + runID + " does not match open run " + r.runID,
			RunID:  runID,
		}
	}
	r.active = false
	return nil
}

// abort closes whatever run is open without id validation. Used for
// external cancellation and run errors.
func (r *runTracker) abort() {
	r.active = false
}

// isOpen reports whether a run is in progress
func (r *runTracker) isOpen() bool {
	return r.active
}
