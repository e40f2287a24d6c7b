package logging

// Standardized field names for structured logging.
const (
	FieldFile       = "file_path"
	FieldOutputFile = "output_file"
	FieldTemplate   = "template"
	FieldVariant    = "variant"
	FieldRow        = "row"
	FieldFilename   = "filename"
	FieldBatch      = "batch_id"
	FieldBackend    = "backend"
	FieldGeneration = "generation"
	FieldDuration   = "duration_ms"
	FieldCount      = "count"
	FieldFailed     = "failed"
	FieldDelimiter  = "delimiter"
	FieldWorkers    = "workers"
)
