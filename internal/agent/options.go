package agent

type TurnDetection struct {
	Type              string
	Threshold         float64
	PrefixPaddingMs   int
	SilenceDurationMs int
}

// SessionOptions selects the runtime's models for one voice session.
type SessionOptions struct {
	Model              string
	Voice              string
	TranscriptionModel string
	Language           string
	TurnDetection      TurnDetection
	NoiseReduction     string
}
