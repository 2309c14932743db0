package policy

import (
	"regexp"
	"strconv"
	"strings"

	"glmcp/internal/schemamode"
	"glmcp/pkg/logging"
)

// Snapshot is an immutable view of every policy input at one point in time.
//
// The runtime catalog parses one snapshot at startup and keeps it until an
// explicit refresh; the tierless view loads a new one on every call.
type Snapshot struct {
	env map[string]string

	DeniedActions    DeniedActions
	DeniedToolsRegex *regexp.Regexp
	ReadOnly         bool
	SchemaMode       schemamode.Mode
	Overrides        Overrides
}

// Load parses a snapshot from env. It never fails; invalid values are
// logged and treated as unset.
func Load(env map[string]string) *Snapshot {
	copied := make(map[string]string, len(env))
	for k, v := range env {
		copied[k] = v
	}

	s := &Snapshot{
		env:           copied,
		DeniedActions: ParseDeniedActions(copied[EnvDeniedActions]),
		ReadOnly:      parseBool(copied, EnvReadOnlyMode, false),
		Overrides:     ParseOverrides(copied),
	}

	if raw := strings.TrimSpace(copied[EnvDeniedToolsRegex]); raw != "" {
		re, err := regexp.Compile(raw)
		if err != nil {
			logging.Warn("Policy", "Ignoring invalid %s %q: %v", EnvDeniedToolsRegex, raw, err)
		} else {
			s.DeniedToolsRegex = re
		}
	}

	mode, err := schemamode.Parse(copied[EnvSchemaMode])
	if err != nil {
		logging.Warn("Policy", "Ignoring %s: %v (using %s)", EnvSchemaMode, err, schemamode.Default)
	}
	s.SchemaMode = mode

	return s
}

// IsGateEnabled evaluates a feature gate variable. Unset or unparsable
// values fall back to def.
func (s *Snapshot) IsGateEnabled(envVar string, def bool) bool {
	return parseBool(s.env, envVar, def)
}

// IsToolDenied reports whether name matches the denied tools expression.
func (s *Snapshot) IsToolDenied(name string) bool {
	return s.DeniedToolsRegex != nil && s.DeniedToolsRegex.MatchString(name)
}

// Get returns the raw value of an environment variable in the snapshot.
func (s *Snapshot) Get(key string) string {
	return s.env[key]
}

func parseBool(env map[string]string, key string, def bool) bool {
	raw, ok := env[key]
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		}
		logging.Warn("Policy", "Ignoring non-boolean %s=%q (using %t)", key, raw, def)
		return def
	}
	return v
}
