package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethods_Whitelist(t *testing.T) {
	want := []string{
		"initialize",
		"cleanup",
		"initialized",
		"save_config",
		"get_config_json",
		"set_config_json",
		"connect_twitch",
		"disconnect_twitch",
		"get_twitch_connection_status",
		"printer",
		"stop_all_sounds",
		"find_new_assets",
		"reload_scripts",
	}

	methods := Methods()
	require.Len(t, methods, len(want))
	for i, m := range methods {
		assert.Equal(t, want[i], m.String())
		assert.True(t, m.Valid())
	}
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		want       Method
		wantErr    bool
		suggestion string
	}{
		{name: "known", input: "printer", want: MethodPrinter},
		{name: "status", input: "get_twitch_connection_status", want: MethodTwitchConnectionStatus},
		{name: "empty", input: "", wantErr: true},
		{name: "typo", input: "initialise", wantErr: true, suggestion: "initialize"},
		{name: "far off", input: "format_disk", wantErr: true},
		{name: "case matters", input: "PRINTER", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			assert.ErrorIs(t, err, ErrMethodNotFound)
			assert.Contains(t, err.Error(), tt.input)
			if tt.suggestion != "" {
				assert.Contains(t, err.Error(), "did you mean "+tt.suggestion)
			} else {
				assert.NotContains(t, err.Error(), "did you mean")
			}
		})
	}
}

func TestMethod_StringOutOfRange(t *testing.T) {
	assert.False(t, Method(0).Valid())
	assert.False(t, Method(99).Valid())
	assert.Equal(t, "Method(99)", Method(99).String())
}
