package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Frame
		wantErr string
	}{
		{"query", `{"type":"query","query":"hi","session_id":"a"}`, Frame{Type: TypeQuery, Query: "hi", SessionID: "a"}, ""},
		{"reset", `{"type":"reset"}`, Frame{Type: TypeReset}, ""},
		{"blank query", `{"type":"query","query":"  "}`, Frame{}, "query is required"},
		{"no type", `{"query":"hi"}`, Frame{}, "missing frame type"},
		{"unknown type", `{"type":"dance"}`, Frame{}, "unknown frame type"},
		{"bad json", `{"type":`, Frame{}, "invalid frame"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.in))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFrameErr(t *testing.T) {
	assert.NoError(t, Response("default", "hello").Err())

	err := Error("default", "Error processing query: boom").Err()
	require.Error(t, err)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "Error processing query: boom", remote.Detail)
}
