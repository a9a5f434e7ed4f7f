package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod    = "method"
	AttrPath      = "path"
	AttrStatus    = "status"
	AttrSource    = "source"
	AttrOutcome   = "outcome"
	AttrFrom      = "from"
	AttrTo        = "to"
	AttrOperation = "operation"
	AttrEventType = "event_type"
)

// Status lookup outcomes.
const (
	LookupCacheHit   = "cache_hit"
	LookupSchedule   = "schedule"
	LookupDirect     = "direct"
	LookupUnresolved = "unresolved"
)
