package trace

import "github.com/google/uuid"

// TraceLevel controls the verbosity of nucleation tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelNucleations captures every inserted loop.
	TraceLevelNucleations TraceLevel = "nucleations"
	// TraceLevelSteps additionally captures every KMC step, nucleating or not.
	TraceLevelSteps TraceLevel = "steps"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelNucleations: true,
	TraceLevelSteps:       true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a run.
type SimulationTrace struct {
	RunID       string
	Config      TraceConfig
	Steps       []StepRecord
	Nucleations []NucleationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording, tagged
// with a fresh run identifier.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		RunID:       uuid.NewString(),
		Config:      config,
		Steps:       make([]StepRecord, 0),
		Nucleations: make([]NucleationRecord, 0),
	}
}

// RecordStep appends a step record. Ignored below TraceLevelSteps.
func (st *SimulationTrace) RecordStep(record StepRecord) {
	if st.Config.Level != TraceLevelSteps {
		return
	}
	st.Steps = append(st.Steps, record)
}

// RecordNucleation appends a nucleation record. Ignored at TraceLevelNone.
func (st *SimulationTrace) RecordNucleation(record NucleationRecord) {
	if st.Config.Level == TraceLevelNone || st.Config.Level == "" {
		return
	}
	st.Nucleations = append(st.Nucleations, record)
}
