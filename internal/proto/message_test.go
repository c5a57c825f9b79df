package proto

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ID
	}{
		{name: "string", in: `{"sessionId":"12"}`, want: "12"},
		{name: "number", in: `{"sessionId":12}`, want: "12"},
		{name: "non numeric string", in: `{"sessionId":"abc"}`, want: "abc"},
		{name: "null", in: `{"sessionId":null}`, want: ""},
		{name: "false", in: `{"sessionId":false}`, want: ""},
		{name: "missing", in: `{}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var data JoinSessionData
			require.NoError(t, json.Unmarshal([]byte(tt.in), &data))
			require.Equal(t, tt.want, data.SessionID)
		})
	}
}

func TestIDUnmarshalRejectsObjects(t *testing.T) {
	var data JoinSessionData
	require.Error(t, json.Unmarshal([]byte(`{"sessionId":{"id":1}}`), &data))
}

func TestValidate(t *testing.T) {
	req := require.New(t)

	req.NoError(Validate(GetSessionsData{UserID: "1"}))

	err := Validate(GetSessionsData{})
	req.EqualError(err, "userId is required")

	err = Validate(SendMessageData{SessionID: "1", Message: strings.Repeat("x", 4097)})
	req.EqualError(err, "userId is required; message must be at most 4096 characters")

	// Empty messages are relayed like any other.
	req.NoError(Validate(SendMessageData{UserID: "1", SessionID: "1"}))

	// Leave has no preconditions.
	req.NoError(Validate(LeaveSessionData{}))
}
