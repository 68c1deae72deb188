package engine

import (
	"context"
	"fmt"

	"maitred/internal/models"

	"github.com/tmc/langchaingo/llms"
)

// AIClient is the primary decision path: one function-calling request to
// the language model per turn. It makes exactly one outbound call, no
// retries; retry policy belongs to the transport, not here.
type AIClient struct {
	model llms.Model
	cfg   Config
}

// NewAIClient creates the AI decision client
func NewAIClient(model llms.Model, cfg Config) *AIClient {
	return &AIClient{model: model, cfg: cfg}
}

// aiDecision is the intermediate result of a successful model call,
// before validation
type aiDecision struct {
	Action     *CandidateAction
	Confidence float64
	Reasoning  string
}

// Decide formats the context into a prompt, invokes the model with the
// function catalogue, and parses its chosen call. Any network error,
// timeout, unknown function, or malformed argument JSON is returned as
// an error; the orchestrator owns the fallback.
func (c *AIClient) Decide(ctx context.Context, message string, actx *ActionContext) (*aiDecision, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.AITimeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, renderSystemPrompt(actx)),
	}
	for _, msg := range actx.History {
		role := llms.ChatMessageTypeHuman
		if msg.Role == models.RoleWaiter {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, msg.Content))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, message))

	resp, err := c.model.GenerateContent(callCtx, content, llms.WithTools(functionCatalogue()))
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	choice := resp.Choices[0]
	if len(choice.ToolCalls) > 0 {
		call := choice.ToolCalls[0]
		if call.FunctionCall == nil {
			return nil, fmt.Errorf("tool call without a function call")
		}
		action, err := parseFunctionCall(call.FunctionCall.Name, call.FunctionCall.Arguments)
		if err != nil {
			return nil, err
		}
		return &aiDecision{
			Action:     action,
			Confidence: c.cfg.AIDefaultConfidence,
			Reasoning:  fmt.Sprintf("model chose %s", action.Type),
		}, nil
	}

	// Free-text content with no function call is still a valid decision:
	// the model chose to just talk.
	if choice.Content == "" {
		return nil, fmt.Errorf("model returned neither a function call nor content")
	}
	return &aiDecision{
		Action: &CandidateAction{
			Type:  ActionNone,
			Reply: choice.Content,
		},
		Confidence: c.cfg.AIDefaultConfidence,
		Reasoning:  "model replied conversationally with no action",
	}, nil
}
