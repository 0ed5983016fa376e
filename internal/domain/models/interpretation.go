package models

import "time"

// InterpretationType is the enumerated force vocabulary. The wire values are
// the ones existing dashboard consumers already parse, so they must never
// change spelling.
type InterpretationType string

const (
	TypeMagneticZone        InterpretationType = "campo_magnetico_ativo"
	TypeResonance           InterpretationType = "ponto_ressonancia"
	TypeGravitationalFlow   InterpretationType = "fluxo_gravitacional"
	TypeFractalEcho         InterpretationType = "eco_temporal"
	TypeMagneticCompression InterpretationType = "compressao_magnetica"
)

// Types lists every interpretation type in stable order.
func Types() []InterpretationType {
	return []InterpretationType{
		TypeMagneticZone,
		TypeResonance,
		TypeGravitationalFlow,
		TypeFractalEcho,
		TypeMagneticCompression,
	}
}

// Location places an interpretation on the price axis.
// Field layout is fixed for presentation-layer compatibility.
type Location struct {
	PriceCenter float64    `json:"preco_centro"`
	Range       [2]float64 `json:"range"` // [low, high]
}

// Interpretation is a structured, scored reading of a detected force.
// Immutable once appended to the codex.
type Interpretation struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	Type            InterpretationType `json:"tipo"`
	Location        Location           `json:"localizacao"`
	Intensity       float64            `json:"intensidade"` // [0,100]
	Description     string             `json:"descricao"`
	Analysis        string             `json:"analise"`
	Recommendations []string           `json:"recomendacoes"`
}

// InterpretationState tracks the codex lifecycle of an entry.
// Detected -> Logged -> Expired; entries are never deleted.
type InterpretationState string

const (
	StateDetected InterpretationState = "detected"
	StateLogged   InterpretationState = "logged"
	StateExpired  InterpretationState = "expired"
)

// PassResult is the outcome of one detection pass over a snapshot version.
type PassResult struct {
	Version         uint64           `json:"version"`
	Timestamp       time.Time        `json:"timestamp"`
	Interpretations []Interpretation `json:"interpretacoes"`
	// PartialDetectors names detector types that hit the pass deadline and
	// contributed incomplete output. Empty on a clean pass.
	PartialDetectors []string `json:"partial_detectors,omitempty"`
}

// Partial reports whether any detector was cut off by the deadline.
func (r PassResult) Partial() bool { return len(r.PartialDetectors) > 0 }
