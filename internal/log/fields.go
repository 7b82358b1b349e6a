package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldURL        = "url"
	FieldYear       = "year"
	FieldRegion     = "region"
	FieldType       = "contract_type"
	FieldCacheKey   = "cache_key"
	FieldRecords    = "records"
	FieldSkipped    = "skipped"
	FieldWarnings   = "warnings"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentSource   = "source"
	ComponentPipeline = "pipeline"
	ComponentCache    = "cache"
)
