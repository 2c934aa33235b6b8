package orchestration

// Reduce applies one inbound frame to the current state and returns the next
// one. It is a pure function: no I/O, no clock, no panics on malformed shapes.
// Unknown frame kinds are no-ops, and missing fields never change state.
func Reduce(prev State, f Frame) State {
	next := prev

	switch f.Type {
	case KindOrchestrationUpdate:
		next = reduceUpdate(prev, f.Data)

	case KindAgentSpeaking:
		if f.IsSpeaking != nil {
			next.IsSpeaking = *f.IsSpeaking
		}

	case KindAgentThinking:
		if f.IsThinking != nil {
			next.IsThinking = *f.IsThinking
		}

	case KindProgressCheck:
		next.IsProgressCheck = true
		next.ProgressCheckType = CheckRoutine
		if f.CheckType != nil && validCheckType(*f.CheckType) {
			next.ProgressCheckType = *f.CheckType
		}

	case KindProgressCheckEnd:
		next.IsProgressCheck = false
		next.ProgressCheckType = ""

	default:
		// Forward compatible: unrecognized kinds are ignored, not errors.
	}

	return next
}

func reduceUpdate(prev State, data *UpdateData) State {
	next := prev
	if data == nil {
		return next
	}

	agent := prev.ActiveAgent
	if data.ActiveAgent != nil && *data.ActiveAgent != "" {
		agent = *data.ActiveAgent
	}

	if data.SessionPhase != nil {
		next.SessionPhase = *data.SessionPhase
	}
	if data.HealthScore != nil {
		next.HealthScore = clampScore(*data.HealthScore)
	}

	// Hand-off detection fires only on an actual identity change; a no-op
	// update must never spuriously raise the transition flag.
	if agent != prev.ActiveAgent {
		next.PreviousAgent = prev.ActiveAgent
		next.ActiveAgent = agent
		next.ShowTransition = true
	}

	// An absent is_checking flag leaves the progress-check slice untouched;
	// flows driven purely by progress_check / progress_check_end frames must
	// not be reset by unrelated updates.
	if data.IsChecking != nil {
		checking := *data.IsChecking && isCheckingRole(agent)
		switch {
		case checking && !prev.IsProgressCheck:
			next.IsProgressCheck = true
			next.ProgressCheckType = classifyCheck(agent, next.HealthScore)
		case !checking:
			next.IsProgressCheck = false
			next.ProgressCheckType = ""
		}
	}

	return next
}

// isCheckingRole gates progress checks to the roles that run them.
func isCheckingRole(agent string) bool {
	return agent == AgentProgressTracker || agent == AgentOrchestrator
}

// classifyCheck picks the check type for a newly started progress check. If
// the backend ever renames agent roles this degrades to the routine default
// instead of failing; see DESIGN.md for the reasoning.
func classifyCheck(agent string, healthScore float64) string {
	switch {
	case healthScore < interventionThreshold:
		return CheckIntervention
	case agent == AgentAssessor:
		return CheckAssessment
	default:
		return CheckRoutine
	}
}

func validCheckType(t string) bool {
	switch t {
	case CheckRoutine, CheckIntervention, CheckAssessment:
		return true
	}
	return false
}
