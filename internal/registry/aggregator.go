// Package registry aggregates entity tool registries into the catalog an
// agent sees.
//
// The Aggregator exposes three views over one shared source catalog:
//
//   - runtime: cached at construction, rebuilt only by Refresh or
//     ReplacePolicy. Every policy applies, including the capability oracle.
//     Lookup and execution only ever consult this view.
//   - tierless: recomputed on every call from the current environment,
//     without the oracle. Meant for documentation and offline tooling.
//   - unfiltered: every known tool with its canonical schema.
//
// Runtime policies apply per tool in a fixed order: feature gate, read-only
// mode, denied tools expression, capability oracle, all-actions-denied.
// Survivors run through the schema pipeline and the tool description
// override. Each drop is logged with its reason and can be queried through
// DropReason.
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"glmcp/internal/policy"
	"glmcp/internal/schema"
	"glmcp/internal/schemamode"
	"glmcp/pkg/logging"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// cachedTool is one runtime catalog entry. It is immutable once built,
// apart from the lazily compiled validator.
type cachedTool struct {
	source        EnhancedToolDefinition
	description   string
	discriminated *schema.Schema
	flat          *schema.Schema

	validatorOnce sync.Once
	validator     *jsonschema.Schema
	validatorErr  error
}

func (c *cachedTool) definition(mode schemamode.Mode) ToolDefinition {
	s := c.discriminated
	if mode == schemamode.ModeFlat {
		s = c.flat
	}
	return ToolDefinition{
		Name:        c.source.Name,
		Description: c.description,
		InputSchema: s,
	}
}

func (c *cachedTool) compiled() (*jsonschema.Schema, error) {
	c.validatorOnce.Do(func() {
		c.validator, c.validatorErr = compileSchema(c.source.Name, c.discriminated)
	})
	return c.validator, c.validatorErr
}

// catalog is one built view.
type catalog struct {
	order   []*cachedTool
	byName  map[string]*cachedTool
	dropped map[string]Drop
}

// Aggregator composes entity registries into one tool catalog.
type Aggregator struct {
	registries []EntityRegistry
	oracle     CapabilityOracle
	resolver   *schemamode.Resolver
	environ    func() map[string]string

	// refreshMu serializes rebuilds; mu guards the swap.
	refreshMu sync.Mutex
	mu        sync.RWMutex
	policy    *policy.Snapshot
	runtime   *catalog
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithOracle sets the capability oracle. Without it every tool is available.
func WithOracle(o CapabilityOracle) Option {
	return func(a *Aggregator) { a.oracle = o }
}

// WithResolver sets the schema mode resolver shared with the transport.
func WithResolver(r *schemamode.Resolver) Option {
	return func(a *Aggregator) { a.resolver = r }
}

// WithEnvironment sets the environment source. It is read once for the
// runtime policy and on every tierless call.
func WithEnvironment(environ func() map[string]string) Option {
	return func(a *Aggregator) { a.environ = environ }
}

// WithPolicy fixes the runtime policy snapshot instead of reading it from
// the environment source.
func WithPolicy(p *policy.Snapshot) Option {
	return func(a *Aggregator) { a.policy = p }
}

// NewAggregator builds the runtime catalog from registries.
func NewAggregator(registries []EntityRegistry, opts ...Option) *Aggregator {
	a := &Aggregator{
		registries: registries,
		environ:    policy.Environ,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.oracle == nil {
		a.oracle = &StaticOracle{}
	}
	if a.policy == nil {
		a.policy = policy.Load(a.environ())
	}
	if a.resolver == nil {
		a.resolver = schemamode.NewResolver(a.policy.SchemaMode)
	}

	a.runtime = a.build(a.policy, a.oracle, "runtime")
	logging.Info("Registry", "Runtime catalog built: %d tools available, %d filtered", len(a.runtime.order), len(a.runtime.dropped))
	return a
}

// Resolver returns the schema mode resolver used for reads.
func (a *Aggregator) Resolver() *schemamode.Resolver {
	return a.resolver
}

// Policy returns the runtime policy snapshot.
func (a *Aggregator) Policy() *policy.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy
}

// Refresh rebuilds the runtime catalog with the current policy snapshot,
// picking up capability oracle changes.
func (a *Aggregator) Refresh() {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	p := a.Policy()
	next := a.build(p, a.oracle, "runtime")

	a.mu.Lock()
	a.runtime = next
	a.mu.Unlock()

	logging.Info("Registry", "Runtime catalog refreshed: %d tools available, %d filtered", len(next.order), len(next.dropped))
}

// ReplacePolicy swaps the runtime policy snapshot and rebuilds the catalog.
func (a *Aggregator) ReplacePolicy(p *policy.Snapshot) {
	a.refreshMu.Lock()
	defer a.refreshMu.Unlock()

	next := a.build(p, a.oracle, "runtime")

	a.mu.Lock()
	a.policy = p
	a.runtime = next
	a.mu.Unlock()

	a.resolver.SetConfigured(p.SchemaMode)
	logging.Info("Registry", "Runtime policy replaced: %d tools available, %d filtered", len(next.order), len(next.dropped))
}

// ReplaceOracle swaps the capability oracle and rebuilds the catalog with
// the current policy.
func (a *Aggregator) ReplaceOracle(o CapabilityOracle) {
	if o == nil {
		o = &StaticOracle{}
	}
	a.refreshMu.Lock()
	a.oracle = o
	a.refreshMu.Unlock()

	a.Refresh()
}

func (a *Aggregator) current() *catalog {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.runtime
}

// GetTool returns a tool of the runtime view in the effective schema mode.
func (a *Aggregator) GetTool(name string) (ToolDefinition, error) {
	entry, ok := a.current().lookup(name)
	if !ok {
		return ToolDefinition{}, &NotFoundError{ToolName: name}
	}
	return entry.definition(a.resolver.Effective()), nil
}

// GetToolInMode returns a tool of the runtime view in the given mode.
func (a *Aggregator) GetToolInMode(name string, mode schemamode.Mode) (ToolDefinition, error) {
	entry, ok := a.current().lookup(name)
	if !ok {
		return ToolDefinition{}, &NotFoundError{ToolName: name}
	}
	return entry.definition(a.resolver.Resolve(mode)), nil
}

// HasToolHandler reports whether name is executable in the runtime view.
func (a *Aggregator) HasToolHandler(name string) bool {
	entry, ok := a.current().lookup(name)
	return ok && entry.source.Handler != nil
}

// GetAvailableToolNames lists the runtime view in catalog order.
func (a *Aggregator) GetAvailableToolNames() []string {
	c := a.current()
	names := make([]string, len(c.order))
	for i, entry := range c.order {
		names[i] = entry.source.Name
	}
	return names
}

// GetAllToolDefinitions lists the runtime view in the effective schema mode.
func (a *Aggregator) GetAllToolDefinitions() []ToolDefinition {
	c := a.current()
	mode := a.resolver.Effective()
	defs := make([]ToolDefinition, len(c.order))
	for i, entry := range c.order {
		defs[i] = entry.definition(mode)
	}
	return defs
}

// GetAllToolDefinitionsTierless recomputes the catalog from the current
// environment, skipping the capability oracle. The runtime catalog is
// neither read nor modified.
func (a *Aggregator) GetAllToolDefinitionsTierless() []ToolDefinition {
	fresh := policy.Load(a.environ())
	c := a.build(fresh, nil, "tierless")
	mode := a.resolver.Resolve(fresh.SchemaMode)

	defs := make([]ToolDefinition, len(c.order))
	for i, entry := range c.order {
		defs[i] = entry.definition(mode)
	}
	return defs
}

// GetAllToolDefinitionsUnfiltered returns every tool of every registry with
// its canonical schema, ignoring all policies.
func (a *Aggregator) GetAllToolDefinitionsUnfiltered() []ToolDefinition {
	sources := a.sources()
	defs := make([]ToolDefinition, len(sources))
	for i, src := range sources {
		defs[i] = ToolDefinition{
			Name:        src.Name,
			Description: src.Description,
			InputSchema: schema.Clone(src.InputSchema),
		}
	}
	return defs
}

// DropReason explains why a tool is missing from the runtime view.
func (a *Aggregator) DropReason(name string) (Drop, bool) {
	d, ok := a.current().dropped[strings.ToLower(name)]
	return d, ok
}

// ExecuteTool runs a tool of the runtime view.
func (a *Aggregator) ExecuteTool(ctx context.Context, name string, args map[string]any) (any, error) {
	entry, ok := a.current().lookup(name)
	if !ok {
		return nil, &NotFoundError{ToolName: name}
	}
	toolName := entry.source.Name

	if action, ok := args[schema.ActionProperty].(string); ok {
		if a.Policy().DeniedActions.IsDenied(toolName, action) {
			logging.Warn("Registry", "Rejected call to denied action %s of %s", action, toolName)
			return nil, &ActionDeniedError{ToolName: toolName, Action: action}
		}
	}

	compiled, err := entry.compiled()
	if err != nil {
		return nil, fmt.Errorf("cannot validate arguments of %s: %w", toolName, err)
	}
	if err := validateArgs(compiled, args); err != nil {
		return nil, &ValidationError{ToolName: toolName, Err: err}
	}

	if entry.source.Handler == nil {
		return nil, fmt.Errorf("tool %s has no handler", toolName)
	}
	return entry.source.Handler(ctx, args)
}

func (c *catalog) lookup(name string) (*cachedTool, bool) {
	entry, ok := c.byName[strings.ToLower(name)]
	return entry, ok
}

// sources returns the shared source catalog: every registry's tools in
// registration order, first definition of a name winning.
func (a *Aggregator) sources() []EnhancedToolDefinition {
	var out []EnhancedToolDefinition
	seen := make(map[string]string)
	for _, reg := range a.registries {
		for _, def := range reg.Tools() {
			key := strings.ToLower(def.Name)
			if owner, dup := seen[key]; dup {
				logging.Warn("Registry", "Ignoring duplicate tool %s from %s (already provided by %s)", def.Name, reg.Name(), owner)
				continue
			}
			seen[key] = reg.Name()
			out = append(out, def)
		}
	}
	return out
}

func (a *Aggregator) readOnlyTools() map[string]struct{} {
	set := make(map[string]struct{})
	for _, reg := range a.registries {
		for _, name := range reg.ReadOnlyToolNames() {
			set[strings.ToLower(name)] = struct{}{}
		}
	}
	return set
}

// build evaluates p against the source catalog. A nil oracle skips the
// availability check.
func (a *Aggregator) build(p *policy.Snapshot, oracle CapabilityOracle, view string) *catalog {
	c := &catalog{
		byName:  make(map[string]*cachedTool),
		dropped: make(map[string]Drop),
	}
	readOnly := a.readOnlyTools()
	transformer := schema.NewTransformerFromSnapshot(p)

	for _, def := range a.sources() {
		if drop, dropped := evaluate(def, p, readOnly, oracle); dropped {
			logging.Info("Registry", "Tool %s filtered out of %s view (reason=%s): %s", def.Name, view, drop.Reason, drop.Detail)
			c.dropped[strings.ToLower(def.Name)] = drop
			continue
		}

		disc := transformer.Transform(def.Name, def.InputSchema, schemamode.ModeDiscriminated)
		entry := &cachedTool{
			source:        def,
			description:   def.Description,
			discriminated: disc,
			flat:          transformer.Flatten(def.Name, disc),
		}
		if d, ok := p.Overrides.ToolDescription(def.Name); ok {
			entry.description = d
		}

		c.order = append(c.order, entry)
		c.byName[strings.ToLower(def.Name)] = entry
	}

	return c
}

// evaluate applies the filtering policies in their fixed order.
func evaluate(def EnhancedToolDefinition, p *policy.Snapshot, readOnly map[string]struct{}, oracle CapabilityOracle) (Drop, bool) {
	name := def.Name

	if def.Gate != nil && !p.IsGateEnabled(def.Gate.EnvVar, def.Gate.Default) {
		return Drop{Tool: name, Reason: DropGate, Detail: def.Gate.EnvVar + " is disabled"}, true
	}

	if p.ReadOnly {
		if _, ok := readOnly[strings.ToLower(name)]; !ok {
			return Drop{Tool: name, Reason: DropReadOnly, Detail: "not a read-only tool"}, true
		}
	}

	if p.IsToolDenied(name) {
		return Drop{Tool: name, Reason: DropDeniedRegex, Detail: "matches " + p.DeniedToolsRegex.String()}, true
	}

	if oracle != nil && !oracle.IsToolAvailable(name) {
		return Drop{Tool: name, Reason: DropUnavailable, Detail: oracle.UnavailableReason(name)}, true
	}

	if actions := schema.Actions(def.InputSchema); p.DeniedActions.AllDenied(name, actions) {
		return Drop{Tool: name, Reason: DropAllActionsDenied, Detail: "denied: " + strings.Join(actions, ", ")}, true
	}

	return Drop{}, false
}
