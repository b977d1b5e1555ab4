package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		level   string
		wantErr bool
	}{
		{name: "json info", format: "json", level: "info"},
		{name: "text debug", format: "text", level: "debug"},
		{name: "defaults", format: "", level: ""},
		{name: "uppercase level", format: "json", level: "WARN"},
		{name: "none", format: "json", level: "none"},
		{name: "unknown level", format: "json", level: "verbose", wantErr: true},
		{name: "unknown format", format: "xml", level: "info", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewLogger(tt.format, tt.level)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, log)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, log)
		})
	}
}

func TestMustNewLoggerPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewLogger("json", "loud")
	})
	assert.NotPanics(t, func() {
		MustNewLogger("text", "error")
	})
}
