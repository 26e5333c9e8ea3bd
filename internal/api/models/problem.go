package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 body, served as application/problem+json for every
// error the API returns.
type Problem struct {
	Type     string       `json:"type"`  // problem type URI
	Title    string       `json:"title"` // stable per Type
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"` // request path
	TraceID  string       `json:"traceId"`            // request id, echoed as X-Request-Id
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError names one rejected query or body field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"` // validator tag
}

// Problem types served by the API.
const (
	ProblemTypeValidation      = "https://api.cragcast.kr/problems/validation-error"
	ProblemTypeNotFound        = "https://api.cragcast.kr/problems/not-found"
	ProblemTypeTooManyRequests = "https://api.cragcast.kr/problems/too-many-requests"
	ProblemTypeInternal        = "https://api.cragcast.kr/problems/internal-error"
	ProblemTypeUnavailable     = "https://api.cragcast.kr/problems/service-unavailable"
	ProblemTypeTLSRequired     = "https://api.cragcast.kr/problems/tls-required"
	ProblemTypeMediaType       = "https://api.cragcast.kr/problems/unsupported-media-type"
)

type problemKind struct {
	typ   string
	title string
}

var problemKinds = map[int]problemKind{
	http.StatusBadRequest:           {ProblemTypeValidation, "Validation error"},
	http.StatusForbidden:            {ProblemTypeTLSRequired, "TLS required"},
	http.StatusNotFound:             {ProblemTypeNotFound, "Not found"},
	http.StatusUnsupportedMediaType: {ProblemTypeMediaType, "Unsupported media type"},
	http.StatusTooManyRequests:      {ProblemTypeTooManyRequests, "Too many requests"},
	http.StatusInternalServerError:  {ProblemTypeInternal, "Internal server error"},
	http.StatusServiceUnavailable:   {ProblemTypeUnavailable, "Service unavailable"},
}

// NewProblem returns a Problem without detail.
func NewProblem(typ, title string, status int, traceID string) *Problem {
	return &Problem{Type: typ, Title: title, Status: status, TraceID: traceID}
}

// ForStatus creates a Problem carrying the API's standard type and title for
// status. Statuses without a standard type are reported as internal errors
// with the original status kept.
func ForStatus(status int, traceID, detail string) *Problem {
	kind, ok := problemKinds[status]
	if !ok {
		kind = problemKinds[http.StatusInternalServerError]
	}
	return NewProblem(kind.typ, kind.title, status, traceID).WithDetail(detail)
}

// WithDetail sets Detail and returns p.
func (p *Problem) WithDetail(detail string) *Problem {
	p.Detail = detail
	return p
}

// WithInstance sets Instance and returns p.
func (p *Problem) WithInstance(path string) *Problem {
	p.Instance = path
	return p
}

// WithErrors sets Errors and returns p.
func (p *Problem) WithErrors(fields []FieldError) *Problem {
	p.Errors = fields
	return p
}

// Write sends p with its status code.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p) //nolint:errcheck // headers already sent
}

// NewBadRequest creates a 400 problem listing the offending fields.
func NewBadRequest(traceID, detail string, fields []FieldError) *Problem {
	return ForStatus(http.StatusBadRequest, traceID, detail).WithErrors(fields)
}

// NewTLSRequired creates a 403 problem for plain HTTP requests.
func NewTLSRequired(traceID string) *Problem {
	return ForStatus(http.StatusForbidden, traceID, "This endpoint requires HTTPS")
}

// NewNotFound creates a 404 problem.
func NewNotFound(traceID, detail string) *Problem {
	return ForStatus(http.StatusNotFound, traceID, detail)
}

// NewUnsupportedMediaType creates a 415 problem.
func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return ForStatus(http.StatusUnsupportedMediaType, traceID, detail)
}

// NewTooManyRequests creates a 429 problem.
func NewTooManyRequests(traceID, detail string) *Problem {
	return ForStatus(http.StatusTooManyRequests, traceID, detail)
}

// NewInternalError creates a 500 problem.
func NewInternalError(traceID, detail string) *Problem {
	return ForStatus(http.StatusInternalServerError, traceID, detail)
}

// NewServiceUnavailable creates a 503 problem. Returned while the forecast
// provider is unreachable and no stale forecast can be served.
func NewServiceUnavailable(traceID, detail string) *Problem {
	return ForStatus(http.StatusServiceUnavailable, traceID, detail)
}
