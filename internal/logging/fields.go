package logging

// Standardized attribute keys. Components log with these names so that output
// stays greppable across the pipeline.
const (
	FieldComponent     = "component"
	FieldEventType     = "event_type"
	FieldErrorHint     = "error_hint"
	FieldImpact        = "impact"
	FieldBookID        = "book_id"
	FieldBookPath      = "book_path"
	FieldVirtualBookID = "virtual_book_id"
	FieldOmnibusType   = "omnibus_type"
	FieldWorkCount     = "work_count"
	FieldCacheKey      = "cache_key"
	FieldStage         = "stage"
)
