package ir

// Version constants for the record schema and engine.
const (
	// SchemaVersion is the record schema version written to interaction rows.
	SchemaVersion = "1"

	// EngineVersion is the gridyield engine version.
	EngineVersion = "0.1.0"
)
