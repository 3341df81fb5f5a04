package logging

// Standardized attribute keys. Keep these stable; log consumers filter
// on them.
const (
	FieldComponent = "component"
	FieldCategory  = "category"
	FieldPath      = "path"
	FieldRoot      = "root"
	FieldSession   = "session_id"
	FieldRunID     = "run_id"
	FieldPhase     = "phase"
	FieldEventType = "event_type"
	FieldErrorHint = "error_hint"
	FieldFileCount = "file_count"
	FieldGroups    = "groups"
	FieldElapsed   = "elapsed"
)
