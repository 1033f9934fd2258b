package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	cases := []string{
		"",
		ErrProtoBadRequest,
		ErrProtoVersion,
		ErrUnknownType,
		ErrBadRequest,
		ErrUnresolvedModel,
		ErrUnknownPort,
		ErrLevelRange,
		ErrNoContent,
		ErrInternal,
	}
	for _, c := range cases {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	if IsKnownCode("E_NOT_DEFINED") {
		t.Fatalf("expected unknown code rejected")
	}
}

func TestNewError(t *testing.T) {
	e := NewError("r1", ErrBadRequest, "nope")
	if e.Type != TypeError || e.ProtocolVersion != Version || e.ID != "r1" || e.Code != ErrBadRequest {
		t.Fatalf("got %+v", e)
	}
}
