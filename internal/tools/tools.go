// Package tools defines the closed set of record-creation tools the
// assistant may invoke, and the registry that executes them.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/vitaldesk/vitaldesk/internal/log"
)

// Tool names as presented to the model.
const (
	NameCreateAppointment  = "createAppointment"
	NameCreatePrescription = "createPrescription"
	NameCreateFitnessPlan  = "createFitnessPlan"
	NameCreateMealPlan     = "createMealPlan"
)

// Outcome is the uniform result of a tool execution. It is what gets
// serialized back to the model and what lands in the audit trail.
type Outcome struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// executor runs one tool against the arguments the model supplied.
type executor func(ctx context.Context, args any) Outcome

// Registry is the closed enumeration of available tools. Construction
// registers each tool with Genkit (so round-1 generation advertises
// their schemas) and keeps a typed executor per name for the manual
// execution round.
type Registry struct {
	refs      []ai.ToolRef
	executors map[string]executor
	logger    log.Logger
}

// NewRegistry registers the four record-creation tools and returns the
// registry. The set of tools is fixed at construction.
func NewRegistry(g *genkit.Genkit, store RecordAppender, logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	r := &Registry{
		executors: make(map[string]executor),
		logger:    logger,
	}
	registerRecordTools(g, r, store)
	return r
}

// Refs returns tool references for generation requests.
func (r *Registry) Refs() []ai.ToolRef {
	out := make([]ai.ToolRef, len(r.refs))
	copy(out, r.refs)
	return out
}

// Names lists the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.refs))
	for _, ref := range r.refs {
		names = append(names, ref.Name())
	}
	return names
}

// Execute runs the named tool. ok is false when the name is not in the
// registry; the caller decides whether that is fatal. Handler errors
// and panics surface as failed Outcomes, never as Go errors, so one bad
// tool call cannot abort the exchange.
func (r *Registry) Execute(ctx context.Context, name string, args any) (outcome Outcome, ok bool) {
	exec, ok := r.executors[name]
	if !ok {
		return Outcome{}, false
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", "tool", name, "panic", rec)
			outcome = Outcome{
				Success: false,
				Error:   fmt.Sprintf("internal error executing %s", name),
			}
		}
	}()

	return exec(ctx, args), true
}

// register wires one typed tool into both Genkit and the executor map.
// The executor decodes model-supplied arguments (map[string]any or a
// typed value) through a JSON round-trip, the same adaptation Genkit
// performs for in-framework tool execution.
func register[In any](
	g *genkit.Genkit,
	r *Registry,
	name, description string,
	handler func(context.Context, In) Outcome,
) {
	tool := genkit.DefineTool(g, name, description,
		func(ctx *ai.ToolContext, input In) (Outcome, error) {
			return handler(ctx, input), nil
		})
	r.refs = append(r.refs, tool)

	r.executors[name] = func(ctx context.Context, args any) Outcome {
		input, err := decodeArgs[In](args)
		if err != nil {
			return Outcome{
				Success: false,
				Error:   fmt.Sprintf("invalid arguments for %s: %v", name, err),
			}
		}
		return handler(ctx, input)
	}
}

func decodeArgs[In any](args any) (In, error) {
	if typed, ok := args.(In); ok {
		return typed, nil
	}

	var input In
	if args == nil {
		return input, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return input, fmt.Errorf("encoding arguments: %w", err)
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, fmt.Errorf("decoding arguments: %w", err)
	}
	return input, nil
}
