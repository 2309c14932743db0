package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{
			name:    "empty server name",
			mutate:  func(c *Config) { c.Server.Name = " " },
			field:   "server.name",
			wantErr: true,
		},
		{
			name:    "unknown transport",
			mutate:  func(c *Config) { c.Server.Transport = "websocket" },
			field:   "server.transport",
			wantErr: true,
		},
		{
			name:   "port ignored for stdio",
			mutate: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name: "port checked for sse",
			mutate: func(c *Config) {
				c.Server.Transport = TransportSSE
				c.Server.Port = 70000
			},
			field:   "server.port",
			wantErr: true,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			field:   "logLevel",
			wantErr: true,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			field:   "logFormat",
			wantErr: true,
		},
		{
			name:    "bad schema mode",
			mutate:  func(c *Config) { c.Environment = map[string]string{"GITLAB_SCHEMA_MODE": "tree"} },
			field:   "environment.GITLAB_SCHEMA_MODE",
			wantErr: true,
		},
		{
			name:    "bad regex",
			mutate:  func(c *Config) { c.Environment = map[string]string{"GITLAB_DENIED_TOOLS_REGEX": "(unclosed"} },
			field:   "environment.GITLAB_DENIED_TOOLS_REGEX",
			wantErr: true,
		},
		{
			name:   "other variables are free-form",
			mutate: func(c *Config) { c.Environment = map[string]string{"USE_WIKI": "maybe"} },
		},
		{
			name:    "empty unavailable tool",
			mutate:  func(c *Config) { c.UnavailableTools = map[string]string{"": "x"} },
			field:   "unavailableTools",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			errs, ok := err.(ValidationErrors)
			if assert.True(t, ok) && assert.Len(t, errs, 1) {
				assert.Equal(t, tt.field, errs[0].Field)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("a", "is wrong")
	assert.Equal(t, "field 'a': is wrong", errs.Error())

	errs.Add("", "global problem")
	assert.Equal(t, "validation failed: field 'a': is wrong; global problem", errs.Error())
}
