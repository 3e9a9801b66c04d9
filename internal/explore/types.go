package explore

import (
	"encoding"

	"github.com/danmuck/futctl/internal/sembas"
)

// ConcreteModel is one deterministic model instance: it classifies
// unit-cube probe points and serializes itself for persistence. It
// satisfies the session classifier contract, so a round hands it
// straight to the engine link.
type ConcreteModel interface {
	Classify(point []float64) (bool, error)
	MarshalBinary() ([]byte, error)
}

// Sampler yields a fresh model instance for each round.
type Sampler interface {
	Sample() (ConcreteModel, error)
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func() (ConcreteModel, error)

func (f SamplerFunc) Sample() (ConcreteModel, error) {
	return f()
}

// ArtifactStore persists the model instance a completed round
// classified with.
type ArtifactStore interface {
	SaveRound(round int, artifact encoding.BinaryMarshaler) (string, error)
}

// VisualizationSink renders a completed round. Rendering is best
// effort: sink errors are logged and never abort the run.
type VisualizationSink interface {
	RenderSession(round int, samples []sembas.Sample, model ConcreteModel) error
}

// RoundStatus is the terminal status of one round.
type RoundStatus string

const (
	RoundCompleted RoundStatus = "completed"
	RoundAborted   RoundStatus = "aborted"
)

// RoundResult records how one round ended. Aborted rounds carry no
// artifact path; their sample count reflects whatever the session
// collected before the fault.
type RoundResult struct {
	Round        int
	ArtifactPath string
	Samples      int
	Status       RoundStatus
}
