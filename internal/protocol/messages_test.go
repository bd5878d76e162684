package protocol_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewlink/relay/internal/protocol"
)

func TestParseValid(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  protocol.Event
	}{
		{
			name:  "join",
			frame: `{"type":"join","room":"ABCD","id":1}`,
			want:  protocol.Join{Room: "ABCD", PlayerID: 1},
		},
		{
			name:  "join with negative id",
			frame: `{"type":"join","room":"ABCD","id":-7}`,
			want:  protocol.Join{Room: "ABCD", PlayerID: -7},
		},
		{
			name:  "id",
			frame: `{"type":"id","id":99}`,
			want:  protocol.SetID{PlayerID: 99},
		},
		{
			name:  "leave",
			frame: `{"type":"leave"}`,
			want:  protocol.Leave{},
		},
		{
			name:  "signal with object payload",
			frame: `{"type":"signal","to":"peer-1","data":{"sdp":"v=0"}}`,
			want:  protocol.Signal{To: "peer-1", Data: json.RawMessage(`{"sdp":"v=0"}`)},
		},
		{
			name:  "signal with string payload",
			frame: `{"type":"signal","to":"peer-1","data":"blob"}`,
			want:  protocol.Signal{To: "peer-1", Data: json.RawMessage(`"blob"`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.Parse([]byte(tt.frame))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{name: "malformed json", frame: `{"type":`},
		{name: "unknown type", frame: `{"type":"offer"}`, want: protocol.ErrUnknownType},
		{name: "join missing room", frame: `{"type":"join","id":1}`, want: protocol.ErrMissingRoom},
		{name: "join empty room", frame: `{"type":"join","room":"","id":1}`, want: protocol.ErrMissingRoom},
		{name: "join missing id", frame: `{"type":"join","room":"ABCD"}`, want: protocol.ErrInvalidID},
		{name: "join float id", frame: `{"type":"join","room":"ABCD","id":1.5}`, want: protocol.ErrInvalidID},
		{name: "join string id", frame: `{"type":"join","room":"ABCD","id":"1"}`, want: protocol.ErrInvalidID},
		{name: "join exponent id", frame: `{"type":"join","room":"ABCD","id":1e3}`, want: protocol.ErrInvalidID},
		{name: "id missing id", frame: `{"type":"id"}`, want: protocol.ErrInvalidID},
		{name: "id boolean", frame: `{"type":"id","id":true}`, want: protocol.ErrInvalidID},
		{name: "signal missing to", frame: `{"type":"signal","data":"x"}`, want: protocol.ErrMissingTo},
		{name: "signal empty to", frame: `{"type":"signal","to":"","data":"x"}`, want: protocol.ErrMissingTo},
		{name: "signal non-string to", frame: `{"type":"signal","to":7,"data":"x"}`},
		{name: "signal missing data", frame: `{"type":"signal","to":"peer-1"}`, want: protocol.ErrMissingData},
		{name: "signal null data", frame: `{"type":"signal","to":"peer-1","data":null}`, want: protocol.ErrMissingData},
		{name: "signal empty string data", frame: `{"type":"signal","to":"peer-1","data":""}`, want: protocol.ErrMissingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.Parse([]byte(tt.frame))
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestSetIDsReplySerializesEmptySnapshot(t *testing.T) {
	data, err := json.Marshal(protocol.NewSetIDsReply(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"setIds","ids":{}}`, string(data))
}

func TestDeleteIDBroadcastOmitsAbsentID(t *testing.T) {
	data, err := json.Marshal(protocol.NewDeleteIDBroadcast("peer-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"deleteId","from":"peer-1"}`, string(data))

	data, err = json.Marshal(protocol.NewDeleteIDBroadcastWithID("peer-1", 4))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"deleteId","from":"peer-1","id":4}`, string(data))
}
