package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"finplan/internal/projection"
	"finplan/internal/scenario"
)

// ProjectionRequest asks a worker to project a scenario.
type ProjectionRequest struct {
	ID       string            `json:"id"`
	Scenario scenario.Scenario `json:"scenario"`
	// Export also writes the result to the configured spreadsheet.
	Export    bool      `json:"export,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewProjectionRequest(s scenario.Scenario, export bool) *ProjectionRequest {
	return &ProjectionRequest{
		ID:        uuid.NewString(),
		Scenario:  s,
		Export:    export,
		Timestamp: time.Now(),
	}
}

func (m *ProjectionRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ProjectionRequestFromJSON decodes a request. A request without a valid
// id is rejected.
func ProjectionRequestFromJSON(data []byte) (*ProjectionRequest, error) {
	var msg ProjectionRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.ID); err != nil {
		return nil, errors.New("projection request has no valid id")
	}
	return &msg, nil
}

// ProjectionResult answers a ProjectionRequest. Exactly one of Projection
// and Error is set.
type ProjectionResult struct {
	RequestID  string                 `json:"request_id"`
	Projection *projection.Projection `json:"projection,omitempty"`
	Error      string                 `json:"error,omitempty"`
	SheetsRef  string                 `json:"sheets_ref,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

func NewProjectionResult(requestID string, p *projection.Projection, err error) *ProjectionResult {
	r := &ProjectionResult{
		RequestID:  requestID,
		Projection: p,
		Timestamp:  time.Now(),
	}
	if err != nil {
		r.Projection = nil
		r.Error = err.Error()
	}
	return r
}

func (m *ProjectionResult) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ProjectionResultFromJSON(data []byte) (*ProjectionResult, error) {
	var msg ProjectionResult
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
