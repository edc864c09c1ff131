// Package chat implements the conversation orchestrator: relevance
// classification, optional retrieval augmentation, a two-round model
// exchange with sequential tool execution, and per-session history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vitaldesk/vitaldesk/internal/log"
	"github.com/vitaldesk/vitaldesk/internal/rag"
	"github.com/vitaldesk/vitaldesk/internal/tools"
)

// systemPrompt frames the assistant. Retrieved document context is
// appended under its own heading when retrieval produced anything.
const systemPrompt = `You are VitalDesk, a helpful health and fitness assistant.
You help patients schedule appointments, record prescriptions, and build
fitness and meal plans using the tools available to you. Answer health
and fitness questions clearly and concisely. When document excerpts are
provided below, ground your answer in them and mention the source when
useful. You are not a doctor; recommend professional medical advice for
serious concerns.`

// FallbackResponse is returned when the model produces an empty final
// message.
const FallbackResponse = "I'm sorry, I couldn't generate a response. Please try rephrasing your question."

// ToolExecution is one audited tool call: what the model asked for and
// what came back.
type ToolExecution struct {
	Tool   string        `json:"tool"`
	Args   any           `json:"args"`
	Result tools.Outcome `json:"result"`
}

// Result is the complete outcome of one chat exchange.
type Result struct {
	Response      string          `json:"response"`
	ToolsExecuted []ToolExecution `json:"toolsExecuted"`
	RAGUsed       bool            `json:"ragUsed"`
	Citations     []rag.Citation  `json:"citations"`
	SessionID     string          `json:"sessionId"`
}

// ContextRetriever is the slice of the retrieval subsystem the
// assistant needs.
type ContextRetriever interface {
	Enabled() bool
	RetrieveAndAugment(ctx context.Context, query string, maxResults int) rag.Augmentation
}

// Config contains all required parameters for the Assistant.
type Config struct {
	Genkit    *genkit.Genkit
	Registry  *tools.Registry
	Retriever ContextRetriever
	Logger    log.Logger

	ModelName     string // full Genkit model name, e.g. googleai/gemini-2.0-flash
	RAGMaxResults int    // chunks requested per retrieval

	MaxHistoryEntries int // exchanges kept per session
	MaxSessions       int // sessions kept before LRU eviction

	// RateLimiter paces model calls. Nil installs a default of
	// 10 req/s with burst 30.
	RateLimiter *rate.Limiter

	// ModelReady reports whether the provider credential is present.
	// Checked per exchange so the server can run without one and still
	// answer every chat call with an explanatory error. Nil means
	// always ready.
	ModelReady func() bool
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Registry == nil {
		return errors.New("tool registry is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Assistant orchestrates chat exchanges. Stateless apart from session
// history; safe for concurrent use.
type Assistant struct {
	g           *genkit.Genkit
	registry    *tools.Registry
	retriever   ContextRetriever
	sessions    *Sessions
	rateLimiter *rate.Limiter
	modelReady  func() bool
	logger      log.Logger

	modelName     string
	ragMaxResults int
}

// New creates an Assistant from the given configuration.
func New(cfg Config) (*Assistant, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	rl := cfg.RateLimiter
	if rl == nil {
		rl = rate.NewLimiter(10, 30)
	}

	maxResults := cfg.RAGMaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	maxEntries := cfg.MaxHistoryEntries
	if maxEntries <= 0 {
		maxEntries = 50
	}
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1000
	}

	a := &Assistant{
		g:             cfg.Genkit,
		registry:      cfg.Registry,
		retriever:     cfg.Retriever,
		sessions:      NewSessions(maxEntries, maxSessions),
		rateLimiter:   rl,
		modelReady:    cfg.ModelReady,
		logger:        logger,
		modelName:     cfg.ModelName,
		ragMaxResults: maxResults,
	}

	logger.Info("chat assistant initialized",
		"model", a.modelName,
		"tools", strings.Join(a.registry.Names(), ", "),
		"rag_enabled", a.retriever.Enabled(),
	)
	return a, nil
}

// Respond runs one complete chat exchange. An empty sessionID starts a
// fresh session under a generated id; the id in use is echoed in the
// Result so clients can stick to it.
func (a *Assistant) Respond(ctx context.Context, sessionID, message string) (*Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if a.modelReady != nil && !a.modelReady() {
		return nil, ErrModelNotConfigured
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var aug rag.Augmentation
	if a.retriever.Enabled() && rag.IsDomainRelated(message) {
		aug = a.retriever.RetrieveAndAugment(ctx, message, a.ragMaxResults)
	}
	ragUsed := aug.Context != ""

	messages := a.buildMessages(sessionID, message, aug.Context)

	// Round 1: the model sees the tools and may request calls instead
	// of answering directly.
	resp, err := a.generate(ctx,
		ai.WithModelName(a.modelName),
		ai.WithMessages(messages...),
		ai.WithTools(a.registry.Refs()...),
		ai.WithReturnToolRequests(true),
	)
	if err != nil {
		return nil, err
	}

	var executed []ToolExecution
	if requests := resp.ToolRequests(); len(requests) > 0 {
		messages = append(messages, resp.Message)
		messages = append(messages, a.executeTools(ctx, requests, &executed)...)

		// Round 2: same conversation plus tool results, no tools, so
		// the model must produce the final text.
		resp, err = a.generate(ctx,
			ai.WithModelName(a.modelName),
			ai.WithMessages(messages...),
		)
		if err != nil {
			return nil, err
		}
	}

	responseText := strings.TrimSpace(resp.Text())
	if responseText == "" {
		a.logger.Warn("model returned empty response", "session_id", sessionID)
		responseText = FallbackResponse
	}

	a.sessions.Append(sessionID, Entry{
		UserMessage: message,
		AIMessage:   responseText,
	})

	return &Result{
		Response:      responseText,
		ToolsExecuted: executed,
		RAGUsed:       ragUsed,
		Citations:     aug.Citations,
		SessionID:     sessionID,
	}, nil
}

// buildMessages assembles the prompt: system framing (with retrieved
// context when present), prior exchanges, then the new user message.
func (a *Assistant) buildMessages(sessionID, message, ragContext string) []*ai.Message {
	system := systemPrompt
	if ragContext != "" {
		system += "\n\nRelevant document excerpts:\n\n" + ragContext
	}

	messages := []*ai.Message{ai.NewSystemMessage(ai.NewTextPart(system))}
	messages = append(messages, a.sessions.Messages(sessionID)...)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(message)))
	return messages
}

// executeTools runs the requested tools sequentially in emission order,
// records the audit trail, and returns one tool message per outcome.
// Requests for names outside the registry are logged and skipped.
func (a *Assistant) executeTools(ctx context.Context, requests []*ai.ToolRequest, executed *[]ToolExecution) []*ai.Message {
	var toolMessages []*ai.Message
	for _, req := range requests {
		outcome, ok := a.registry.Execute(ctx, req.Name, req.Input)
		if !ok {
			a.logger.Warn("model requested unknown tool, skipping", "tool", req.Name)
			continue
		}

		a.logger.Info("tool executed",
			"tool", req.Name,
			"success", outcome.Success,
		)
		*executed = append(*executed, ToolExecution{
			Tool:   req.Name,
			Args:   req.Input,
			Result: outcome,
		})

		toolMessages = append(toolMessages, &ai.Message{
			Role: ai.RoleTool,
			Content: []*ai.Part{
				ai.NewToolResponsePart(&ai.ToolResponse{
					Name:   req.Name,
					Ref:    req.Ref,
					Output: outcome,
				}),
			},
		})
	}
	return toolMessages
}

// generate paces one model call through the rate limiter and classifies
// provider failures. No automatic retry: errors surface to the caller.
func (a *Assistant) generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	if err := a.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := genkit.Generate(ctx, a.g, opts...)
	if err != nil {
		return nil, ClassifyProviderError(err)
	}
	return resp, nil
}
