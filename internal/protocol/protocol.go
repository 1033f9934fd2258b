package protocol

import "encoding/json"

const Version = "1"

// Message types.
const (
	TypeCheck       = "CHECK"
	TypeDiag        = "DIAG"
	TypeCheckResult = "CHECK_RESULT"
	TypeSimulate    = "SIMULATE"
	TypeSimResult   = "SIM_RESULT"
	TypeError       = "ERROR"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ID              string `json:"id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
