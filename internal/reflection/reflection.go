package reflection

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autocritique/reflect-go/internal/client"
	"github.com/autocritique/reflect-go/internal/observability"
	"github.com/autocritique/reflect-go/internal/types"
)

// ApprovalMarker is the literal token a critique uses to signal that the
// generation needs no further changes.
const ApprovalMarker = "<OK>"

const (
	DefaultGenerationPrompt = "You are a Python programmer tasked with generating high quality Python code. " +
		"When asked to provide code, respond with a single python code block (```python ... ```)."
	DefaultReflectionPrompt = "You are an expert reviewer. Provide critique and actionable recommendations for the user's code. " +
		"If the code requires no further changes, reply with exactly '" + ApprovalMarker + "'."
)

type Config struct {
	Model            string
	GenerationPrompt string
	ReflectionPrompt string
	MaxSteps         int
	StopOnApproval   bool
	StepDelay        time.Duration
}

// Agent runs alternating generation and critique turns against a single
// injected ChatClient until the critique approves or the step budget runs out.
type Agent struct {
	client client.ChatClient
	cfg    Config
}

func New(c client.ChatClient, cfg Config) *Agent {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 3
	}
	if cfg.Model == "" {
		cfg.Model = c.ModelName()
	}
	if cfg.GenerationPrompt == "" {
		cfg.GenerationPrompt = DefaultGenerationPrompt
	}
	if cfg.ReflectionPrompt == "" {
		cfg.ReflectionPrompt = DefaultReflectionPrompt
	}
	return &Agent{client: c, cfg: cfg}
}

// Run executes the reflection loop for one task. The transcript only ever
// grows: each step appends the generation as an assistant message and the
// critique as a user message, so later generations see the feedback. The
// returned result is owned by the caller; the agent keeps no state between
// runs.
func (a *Agent) Run(ctx context.Context, task string) (*types.RunResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	defer func() {
		observability.RunDuration.Observe(time.Since(start).Seconds())
	}()

	slog.Info("Starting reflection run", "run_id", runID, "model", a.cfg.Model, "max_steps", a.cfg.MaxSteps)

	transcript := []types.Message{
		{Role: types.RoleSystem, Content: a.cfg.GenerationPrompt},
		{Role: types.RoleUser, Content: task},
	}

	var rounds []types.Round
	finalAssistant := ""

	for step := 1; step <= a.cfg.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			slog.Warn("Context cancelled", "run_id", runID, "step", step)
			return nil, err
		}

		generationText, err := a.callModel(ctx, transcript)
		if err != nil {
			observability.RunErrors.Inc()
			return nil, err
		}
		transcript = append(transcript, types.Message{Role: types.RoleAssistant, Content: generationText})

		// The critique sees only the latest generation, on a fresh two-message
		// transcript under the reflection role.
		critiqueText, err := a.callModel(ctx, []types.Message{
			{Role: types.RoleSystem, Content: a.cfg.ReflectionPrompt},
			{Role: types.RoleUser, Content: generationText},
		})
		if err != nil {
			observability.RunErrors.Inc()
			return nil, err
		}
		transcript = append(transcript, types.Message{Role: types.RoleUser, Content: critiqueText})

		rounds = append(rounds, types.Round{Step: step, GenerationText: generationText, CritiqueText: critiqueText})
		finalAssistant = generationText

		slog.Debug("Round complete", "run_id", runID, "step", step,
			"generation_len", len(generationText), "critique_len", len(critiqueText))

		if a.cfg.StopOnApproval && Approved(critiqueText) {
			slog.Info("Approval detected, ending loop", "run_id", runID, "step", step)
			break
		}

		if step < a.cfg.MaxSteps && a.cfg.StepDelay > 0 {
			time.Sleep(a.cfg.StepDelay)
		}
	}

	observability.RunRounds.Observe(float64(len(rounds)))
	slog.Info("Reflection run finished", "run_id", runID, "rounds", len(rounds))

	return &types.RunResult{
		RunID:          runID,
		Model:          a.cfg.Model,
		FinalAssistant: finalAssistant,
		Rounds:         rounds,
		Transcript:     transcript,
		UsageSummary:   a.client.GetUsageSummary(),
		ExecutionTime:  time.Since(start).Seconds(),
	}, nil
}

// callModel sends the transcript and resolves the reply to text. Transport
// errors propagate; unrecognized reply shapes degrade to a string coercion
// inside ResponseText and never abort the run.
func (a *Agent) callModel(ctx context.Context, messages []types.Message) (string, error) {
	resp, err := a.client.Send(ctx, messages, a.cfg.Model)
	if err != nil {
		return "", err
	}
	return client.ResponseText(resp), nil
}

// Approved reports whether critique text signals approval: the marker
// anywhere, the whole trimmed text equal to "ok", or any single trimmed line
// equal to "ok". All case-insensitive. Empty critiques never approve.
func Approved(critiqueText string) bool {
	if critiqueText == "" {
		return false
	}
	lowered := strings.ToLower(strings.TrimSpace(critiqueText))
	if strings.Contains(lowered, strings.ToLower(ApprovalMarker)) {
		return true
	}
	if lowered == "ok" {
		return true
	}
	for _, line := range strings.Split(critiqueText, "\n") {
		if strings.ToLower(strings.TrimSpace(line)) == "ok" {
			return true
		}
	}
	return false
}
