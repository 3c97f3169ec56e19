package models

// Stage is a step of the narration state machine. The sequence only moves
// forward; any stage may end in StageFailed.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageAcquiring    Stage = "acquiring"
	StageValidating   Stage = "validating"
	StageTruncating   Stage = "truncating"
	StageGenerating   Stage = "generating"
	StageSynthesizing Stage = "synthesizing"
	StageReady        Stage = "ready"
	StageFailed       Stage = "failed"
)

var stageOrder = []Stage{
	StageIdle,
	StageAcquiring,
	StageValidating,
	StageTruncating,
	StageGenerating,
	StageSynthesizing,
	StageReady,
}

// Next returns the following stage, or s itself for terminal stages.
func (s Stage) Next() Stage {
	for i, st := range stageOrder {
		if st == s && i+1 < len(stageOrder) {
			return stageOrder[i+1]
		}
	}
	return s
}

func (s Stage) Terminal() bool { return s == StageReady || s == StageFailed }

// CanTransition reports whether to is a legal successor of s.
func (s Stage) CanTransition(to Stage) bool {
	if s.Terminal() {
		return false
	}
	if to == StageFailed {
		return s != StageIdle
	}
	return s.Next() == to
}
