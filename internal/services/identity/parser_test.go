package identity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/telewall/miniapp-backend/internal/domain"
)

func TestParsePayload(t *testing.T) {
	payload, err := ParsePayload("b=2&a=1+x&&a=dup&empty=&bare&hash=abc&hash=ignored")
	require.NoError(t, err)
	require.Equal(t, "abc", payload.Signature)
	require.Equal(t, []Field{
		{Key: "b", Value: "2"},
		{Key: "a", Value: "1 x"},
		{Key: "empty", Value: ""},
		{Key: "bare", Value: ""},
	}, payload.Fields)

	value, ok := payload.Get("a")
	require.True(t, ok)
	require.Equal(t, "1 x", value)

	_, ok = payload.Get(SignatureField)
	require.False(t, ok)
}

func TestCheckString(t *testing.T) {
	fields := []Field{
		{Key: "user", Value: `{"id":1}`},
		{Key: "auth_date", Value: "10"},
		{Key: "hash", Value: "skipped"},
		{Key: "Zeta", Value: ""},
	}

	require.Equal(t, "Zeta=\nauth_date=10\nuser={\"id\":1}", CheckString(fields))
}

func TestDecodeIdentity(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantID   string
		wantName string
		wantErr  bool
	}{
		{name: "plain json", value: `{"id":42,"first_name":"A"}`, wantID: "42"},
		{name: "percent encoded json", value: `%7B%22id%22%3A42%7D`, wantID: "42"},
		{name: "percent sign inside decoded json", value: `{"id":42,"first_name":"100%"}`, wantID: "42"},
		{name: "plus kept in percent encoded json", value: `%7B%22id%22%3A42%2C%22first_name%22%3A%22a+b%22%7D`, wantID: "42", wantName: "a+b"},
		{name: "array", value: `[1,2]`, wantErr: true},
		{name: "garbage", value: `%zz`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodeIdentity(tt.value)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrMalformedIdentity)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, stringValue(obj["id"]))
			if tt.wantName != "" {
				require.Equal(t, tt.wantName, stringValue(obj["first_name"]))
			}
		})
	}
}
