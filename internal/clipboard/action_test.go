package clipboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActionRoundTripsTokens(t *testing.T) {
	for _, action := range Actions() {
		parsed, err := ParseAction(action.String())
		require.NoError(t, err)
		assert.Equal(t, action, parsed)
	}
}

func TestParseActionRejectsUnknownTokens(t *testing.T) {
	for _, token := range []string{"", "deleteForever", "Close", " close"} {
		_, err := ParseAction(token)
		assert.ErrorIs(t, err, ErrUnsupportedAction, "token %q", token)
	}
}

func TestActionJSONUsesToken(t *testing.T) {
	raw, err := json.Marshal(struct {
		Action Action `json:"action"`
	}{ActionLeavePermanently})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"leavePermanently"}`, string(raw))

	var decoded struct {
		Action Action `json:"action"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"action":"open"}`), &decoded))
	assert.Equal(t, ActionOpen, decoded.Action)

	err = json.Unmarshal([]byte(`{"action":"deleteForever"}`), &decoded)
	assert.ErrorIs(t, err, ErrUnsupportedAction)
}

func TestUnspecifiedActionIsInvalid(t *testing.T) {
	assert.False(t, ActionUnspecified.Valid())
	assert.Equal(t, "Action(0)", ActionUnspecified.String())
}
