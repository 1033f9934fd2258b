package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrProtoVersion    = "E_PROTO_VERSION"
	ErrUnknownType     = "E_UNKNOWN_TYPE"

	// Request layer.
	ErrBadRequest      = "E_BAD_REQUEST"
	ErrUnresolvedModel = "E_UNRESOLVED_MODEL"
	ErrUnknownPort     = "E_UNKNOWN_PORT"
	ErrLevelRange      = "E_LEVEL_RANGE"
	ErrNoContent       = "E_NO_CONTENT"
	ErrInternal        = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrProtoVersion:    {},
	ErrUnknownType:     {},
	ErrBadRequest:      {},
	ErrUnresolvedModel: {},
	ErrUnknownPort:     {},
	ErrLevelRange:      {},
	ErrNoContent:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
