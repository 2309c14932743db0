// Package schemamode decides which schema shape a connected agent receives.
//
// In ModeAuto the shape is detected once per initialize handshake from the
// client's self-reported name. The detected value is held by the Resolver,
// which is process-wide, not per session: on a multi-client transport every
// connected session sees the mode detected for the most recent client.
package schemamode

import (
	"fmt"
	"strings"
	"sync"

	"glmcp/pkg/logging"
)

// Mode selects between flat and discriminated tool schemas.
type Mode string

const (
	ModeFlat          Mode = "flat"
	ModeDiscriminated Mode = "discriminated"
	ModeAuto          Mode = "auto"
)

// Default is used when no mode is configured.
const Default = ModeFlat

// Parse converts a configuration value into a Mode. Empty input yields
// Default. Unknown values yield Default and an error.
func Parse(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return Default, nil
	case ModeFlat:
		return ModeFlat, nil
	case ModeDiscriminated:
		return ModeDiscriminated, nil
	case ModeAuto:
		return ModeAuto, nil
	default:
		return Default, fmt.Errorf("unknown schema mode %q (want flat, discriminated or auto)", s)
	}
}

// clientFamilies maps known client name families to the schema shape they
// handle. A client matches a family on exact name or "<family>-" prefix.
var clientFamilies = []struct {
	family string
	mode   Mode
}{
	{"claude-ai", ModeDiscriminated},
	{"claude-code", ModeDiscriminated},
	{"claude-desktop", ModeDiscriminated},
	{"mcp-inspector", ModeDiscriminated},
	{"inspector", ModeDiscriminated},
	{"cursor", ModeFlat},
	{"windsurf", ModeFlat},
	{"cline", ModeFlat},
	{"roo-code", ModeFlat},
	{"continue", ModeFlat},
	{"zed", ModeFlat},
	{"vscode", ModeFlat},
	{"github-copilot", ModeFlat},
}

// ModeForClient returns the schema shape for a client name. Unknown
// clients get ModeFlat, the shape every client can consume.
func ModeForClient(clientName string) (Mode, bool) {
	name := strings.ToLower(strings.TrimSpace(clientName))
	if name == "" {
		return ModeFlat, false
	}
	for _, f := range clientFamilies {
		if name == f.family || strings.HasPrefix(name, f.family+"-") {
			return f.mode, true
		}
	}
	return ModeFlat, false
}

// Resolver owns the configured mode and the process-wide detection state.
type Resolver struct {
	mu         sync.RWMutex
	configured Mode
	detected   *Mode
	clientName string
}

// NewResolver creates a resolver for the configured mode.
func NewResolver(configured Mode) *Resolver {
	if configured == "" {
		configured = Default
	}
	return &Resolver{configured: configured}
}

// Configured returns the configured mode.
func (r *Resolver) Configured() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.configured
}

// SetConfigured replaces the configured mode. Detection state is kept.
func (r *Resolver) SetConfigured(m Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m == "" {
		m = Default
	}
	r.configured = m
}

// Effective resolves the mode in force right now.
func (r *Resolver) Effective() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(r.configured)
}

// Resolve maps an arbitrary configured mode to a concrete one using the
// current detection state.
func (r *Resolver) Resolve(m Mode) Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(m)
}

func (r *Resolver) resolveLocked(m Mode) Mode {
	if m != ModeAuto {
		return m
	}
	if r.detected != nil {
		return *r.detected
	}
	return ModeFlat
}

// DetectFromClient records the mode for a newly initialized client and
// returns the effective mode. Outside ModeAuto nothing is recorded.
func (r *Resolver) DetectFromClient(clientName string) Mode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.configured != ModeAuto {
		return r.configured
	}

	mode, known := ModeForClient(clientName)
	if r.detected != nil && *r.detected != mode {
		logging.Warn("SchemaMode", "Client %q switches detected schema mode from %s to %s for all sessions", clientName, *r.detected, mode)
	}
	r.detected = &mode
	r.clientName = clientName

	if known {
		logging.Info("SchemaMode", "Detected schema mode %s for client %q", mode, clientName)
	} else {
		logging.Info("SchemaMode", "Unknown client %q, using schema mode %s", clientName, mode)
	}
	return mode
}

// Detected returns the detected mode and the client it came from.
func (r *Resolver) Detected() (Mode, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.detected == nil {
		return "", "", false
	}
	return *r.detected, r.clientName, true
}

// Clear forgets the detected mode.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detected = nil
	r.clientName = ""
}
