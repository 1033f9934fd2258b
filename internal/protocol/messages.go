package protocol

import "encoding/json"

// CHECK (client -> server). Circuit is a circuit document; its imports are
// resolved against the server's library directory.
type CheckMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	ID              string          `json:"id,omitempty"`
	Circuit         json.RawMessage `json:"circuit"`
	Verbose         bool            `json:"verbose,omitempty"`
}

// DIAG (server -> client): one diagnostic line, streamed while a request runs.
type DiagMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Line            string `json:"line"`
}

// CHECK_RESULT (server -> client)
type CheckResultMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ID              string   `json:"id,omitempty"`
	RunID           string   `json:"run_id"`
	OK              bool     `json:"ok"`
	Dots            int      `json:"dots"`
	Edges           int      `json:"edges"`
	Violations      []string `json:"violations"`
	Conflicts       []string `json:"conflicts"`
}

// SIMULATE (client -> server). Model is the path of a component model file
// inside the server's library directory.
type SimulateMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ID              string         `json:"id,omitempty"`
	Model           string         `json:"model"`
	Inputs          map[string]int `json:"inputs"`
}

// SIM_RESULT (server -> client)
type SimResultMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ID              string         `json:"id,omitempty"`
	RunID           string         `json:"run_id"`
	Outputs         map[string]int `json:"outputs"`
}

// ERROR (server -> client): the request named by ID failed.
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}

func NewError(id, code, message string) ErrorMsg {
	return ErrorMsg{Type: TypeError, ProtocolVersion: Version, ID: id, Code: code, Message: message}
}
