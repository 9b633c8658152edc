package session

// Phase is the single state of a session's backend work. Busy phases mark
// an operation in flight; the others are stable.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseAnalyzing    Phase = "analyzing"
	PhaseCompleted    Phase = "completed"
	PhaseTranscribing Phase = "transcribing"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseAudioReady   Phase = "audio_ready"
)

var transitions = map[Phase][]Phase{
	PhaseIdle:         {PhaseAnalyzing, PhaseTranscribing},
	PhaseCompleted:    {PhaseAnalyzing, PhaseTranscribing},
	PhaseAudioReady:   {PhaseAnalyzing, PhaseTranscribing},
	PhaseAnalyzing:    {PhaseIdle, PhaseCompleted, PhaseAudioReady},
	PhaseTranscribing: {PhaseSynthesizing, PhaseIdle, PhaseCompleted, PhaseAudioReady},
	PhaseSynthesizing: {PhaseIdle, PhaseCompleted, PhaseAudioReady},
}

// Busy reports whether an operation is in flight.
func (p Phase) Busy() bool {
	return p == PhaseAnalyzing || p == PhaseTranscribing || p == PhaseSynthesizing
}

// CanTransition reports whether to may follow p.
func (p Phase) CanTransition(to Phase) bool {
	for _, next := range transitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

func (p Phase) String() string { return string(p) }
