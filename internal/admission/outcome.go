package admission

import (
	"errors"
	"net/http"

	"github.com/akave-ai/logwatch/internal/sizeguard"
)

// ErrMalformedRequest is returned when the body is not a single JSON value.
var ErrMalformedRequest = errors.New("malformed request")

// Outcome labels how an admission ended. It is used as a metric label and a
// log field.
type Outcome string

const (
	OutcomeAccepted        Outcome = "accepted"
	OutcomeMalformed       Outcome = "malformed"
	OutcomeTooLarge        Outcome = "too_large"
	OutcomeSchemaViolation Outcome = "schema_violation"
	OutcomeUnauthorized    Outcome = "unauthorized"
	OutcomeTokenStoreError Outcome = "token_store_error"
	OutcomeSinkUnavailable Outcome = "sink_unavailable"
)

// Client-facing error messages. They never carry validation detail.
const (
	MessageMalformed    = "Your log payload is not valid JSON."
	MessageTooLarge     = sizeguard.TooLargeMessage
	MessageInvalid      = "Your log payload has validation errors."
	MessageUnauthorized = "Your access token is missing or invalid."
)

// ErrorBody is the JSON body of every 4xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// AcceptedBody is returned by durable variants.
type AcceptedBody struct {
	UUID string `json:"uuid"`
}

// Result is what the HTTP layer writes back. A nil Body means no body.
type Result struct {
	Status  int
	Body    any
	Outcome Outcome
	// UUID is set when a durable sink stored the event.
	UUID string
	// Err is the internal cause, for logging only.
	Err error
}

func reject(status int, outcome Outcome, message string, err error) Result {
	return Result{Status: status, Body: ErrorBody{Error: message}, Outcome: outcome, Err: err}
}

func failure(outcome Outcome, err error) Result {
	return Result{Status: http.StatusInternalServerError, Outcome: outcome, Err: err}
}
