package registry

import (
	"context"
	"strings"

	"glmcp/internal/schema"
)

// ToolDefinition is what a consumer sees of a tool.
// InputSchema is shared with the catalog and must be treated as read-only.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema *schema.Schema `json:"inputSchema"`
}

// FeatureGate switches a tool group on or off through an environment variable.
type FeatureGate struct {
	EnvVar  string
	Default bool
}

// Handler executes one tool call against the remote service.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// EnhancedToolDefinition is a tool as supplied by an entity registry.
type EnhancedToolDefinition struct {
	ToolDefinition
	Handler Handler
	Gate    *FeatureGate
}

// EntityRegistry supplies the tools of one entity group.
type EntityRegistry interface {
	// Name identifies the group in logs.
	Name() string

	// Tools returns the group's canonical tool definitions in display order.
	Tools() []EnhancedToolDefinition

	// ReadOnlyToolNames lists the tools that are safe in read-only mode.
	ReadOnlyToolNames() []string
}

// StaticRegistry is an EntityRegistry over fixed data.
type StaticRegistry struct {
	GroupName string
	Defs      []EnhancedToolDefinition
	ReadOnly  []string
}

var _ EntityRegistry = (*StaticRegistry)(nil)

func (r *StaticRegistry) Name() string                    { return r.GroupName }
func (r *StaticRegistry) Tools() []EnhancedToolDefinition { return r.Defs }
func (r *StaticRegistry) ReadOnlyToolNames() []string     { return r.ReadOnly }

// CapabilityOracle answers whether the connected service offers a tool.
type CapabilityOracle interface {
	IsToolAvailable(name string) bool
	UnavailableReason(name string) string
}

// StaticOracle marks a fixed set of tools unavailable. The zero value
// reports every tool available.
type StaticOracle struct {
	unavailable map[string]string
}

var _ CapabilityOracle = (*StaticOracle)(nil)

// NewStaticOracle creates an oracle from tool name to unavailability reason.
func NewStaticOracle(unavailable map[string]string) *StaticOracle {
	m := make(map[string]string, len(unavailable))
	for name, reason := range unavailable {
		m[strings.ToLower(name)] = reason
	}
	return &StaticOracle{unavailable: m}
}

func (o *StaticOracle) IsToolAvailable(name string) bool {
	if o == nil {
		return true
	}
	_, blocked := o.unavailable[strings.ToLower(name)]
	return !blocked
}

func (o *StaticOracle) UnavailableReason(name string) string {
	if o == nil {
		return ""
	}
	return o.unavailable[strings.ToLower(name)]
}

// DropReason tags why a tool is missing from a view.
type DropReason string

const (
	DropGate             DropReason = "gate"
	DropReadOnly         DropReason = "read-only"
	DropDeniedRegex      DropReason = "denied-regex"
	DropUnavailable      DropReason = "unavailable"
	DropAllActionsDenied DropReason = "all-actions-denied"
)

// Drop records a filtering decision.
type Drop struct {
	Tool   string     `json:"tool"`
	Reason DropReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}
