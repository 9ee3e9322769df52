package responder

// Response represents the standard API response structure
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
	Meta  Meta   `json:"meta"`
}

// Error represents the error structure in API responses
type Error struct {
	Type    string         `json:"type,omitempty"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Meta represents metadata in API responses
type Meta struct {
	TraceId string `json:"traceId,omitempty"`
	Took    int64  `json:"took,omitempty"`
}
