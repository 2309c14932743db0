package entities

import (
	"context"
	"fmt"

	"glmcp/internal/registry"
	"glmcp/internal/schema"
)

// Request is one validated tool call, split into its discriminator and the
// remaining parameters.
type Request struct {
	Entity string         `json:"entity"`
	Tool   string         `json:"tool"`
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// Backend performs entity operations against the remote service.
type Backend interface {
	Do(ctx context.Context, req Request) (any, error)
}

// EchoBackend answers every request with the request itself. It lets the
// catalog be served and exercised without a GitLab instance.
type EchoBackend struct{}

var _ Backend = EchoBackend{}

// DryRunResult is what EchoBackend returns.
type DryRunResult struct {
	DryRun  bool    `json:"dryRun"`
	Request Request `json:"request"`
}

func (EchoBackend) Do(ctx context.Context, req Request) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DryRunResult{DryRun: true, Request: req}, nil
}

// handler adapts a Backend to a tool handler for one tool.
func handler(backend Backend, entity, tool string) registry.Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		action, ok := args[schema.ActionProperty].(string)
		if !ok || action == "" {
			return nil, fmt.Errorf("%s: missing %q argument", tool, schema.ActionProperty)
		}

		params := make(map[string]any, len(args))
		for k, v := range args {
			if k != schema.ActionProperty {
				params[k] = v
			}
		}

		return backend.Do(ctx, Request{
			Entity: entity,
			Tool:   tool,
			Action: action,
			Params: params,
		})
	}
}
