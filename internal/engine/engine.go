package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"maitred/internal/models"

	"github.com/tmc/langchaingo/llms"
)

// UsageTracker receives one record per decision. Injected rather than
// ambient so multiple engine instances stay independent and testable.
type UsageTracker interface {
	RecordDecision(result *DecisionResult)
}

// NopUsage discards usage records
type NopUsage struct{}

// RecordDecision implements UsageTracker
func (NopUsage) RecordDecision(*DecisionResult) {}

// Request carries everything the caller knows about one conversation turn
type Request struct {
	RestaurantID  uint
	TableNumber   int
	Message       string
	History       []models.ChatMessage
	PendingAction *CandidateAction // proposed last turn, awaiting the customer's yes
}

// Engine is the action decision engine. One Decide call per customer
// message, strictly sequential: build context, gate, try the model, fall
// back to patterns on failure, validate.
type Engine struct {
	builder   *ContextBuilder
	ai        *AIClient
	matcher   *Matcher
	validator *Validator
	cfg       Config
	usage     UsageTracker
}

// Option configures the engine
type Option func(*Engine)

// WithUsageTracker injects a usage tracking collaborator
func WithUsageTracker(u UsageTracker) Option {
	return func(e *Engine) {
		if u != nil {
			e.usage = u
		}
	}
}

// New creates a decision engine
func New(store Store, model llms.Model, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		builder:   NewContextBuilder(store, cfg),
		ai:        NewAIClient(model, cfg),
		matcher:   NewMatcher(cfg),
		validator: NewValidator(cfg),
		cfg:       cfg,
		usage:     NopUsage{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Decide turns one customer message into a validated decision. The only
// error it returns is a context-build failure; every AI or validation
// problem resolves to a DecisionResult instead, so the customer always
// gets a conversational answer.
func (e *Engine) Decide(ctx context.Context, req Request) (*DecisionResult, error) {
	start := time.Now()

	actx, err := e.builder.Build(ctx, req.RestaurantID, req.TableNumber, req.History)
	if err != nil {
		return nil, fmt.Errorf("context build failed: %w", err)
	}
	actx.PendingAction = req.PendingAction

	result := e.decideWithContext(ctx, req.Message, actx)
	result = e.validator.Finalize(result, actx)
	result.Latency = time.Since(start)

	e.usage.RecordDecision(result)
	return result, nil
}

// decideWithContext runs the AI path, then the fallback if the AI path
// failed or came back under the fallback floor.
func (e *Engine) decideWithContext(ctx context.Context, message string, actx *ActionContext) *DecisionResult {
	decision, err := e.ai.Decide(ctx, message, actx)
	if err == nil && decision.Confidence >= e.cfg.FallbackConfidence {
		return &DecisionResult{
			Action:     decision.Action,
			Confidence: decision.Confidence,
			Reasoning:  decision.Reasoning,
			Intent:     string(decision.Action.Type),
			Path:       PathAI,
		}
	}

	if err != nil {
		log.Printf("AI path failed, using pattern fallback: %v", err)
	} else {
		log.Printf("AI confidence %.2f below floor %.2f, using pattern fallback", decision.Confidence, e.cfg.FallbackConfidence)
		err = fmt.Errorf("confidence %.2f below floor", decision.Confidence)
	}

	result := e.matcher.Match(message, actx)
	result.Reasoning = fmt.Sprintf("AI call failed: %v. %s", err, result.Reasoning)

	// Fallback results are never trusted, whatever the matcher thinks.
	if result.Confidence >= e.cfg.TrustedConfidence {
		result.Confidence = e.cfg.TrustedConfidence - 0.01
	}
	return result
}
