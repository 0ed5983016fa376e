package models

// DataRequest asks for the raw points of a snapshot version.
// Version 0 means the latest published version.
type DataRequest struct {
	Version uint64 `query:"version" json:"version" validate:"gte=0"`
	Limit   int    `query:"limit" json:"limit" default:"500" validate:"gt=0,lte=5000"`
}

// AnalysisRequest asks for a detection pass over a snapshot version.
type AnalysisRequest struct {
	Version uint64 `query:"version" json:"version" validate:"gte=0"`
}

// InterpretationsRequest asks for codex entries. From/To accept RFC3339
// or unix seconds and bound the interpretation timestamps.
type InterpretationsRequest struct {
	IncludeExpired bool   `query:"include_expired" json:"include_expired"`
	Type           string `query:"tipo" json:"tipo" validate:"omitempty,oneof=campo_magnetico_ativo ponto_ressonancia fluxo_gravitacional eco_temporal compressao_magnetica"`
	From           string `query:"from" json:"from"`
	To             string `query:"to" json:"to"`
	Limit          int    `query:"limit" json:"limit" default:"100" validate:"gt=0,lte=1000"`
}
