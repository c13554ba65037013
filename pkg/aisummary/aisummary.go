// Package aisummary wraps the LLM call that turns a workflow's full JSON
// into a one-sentence description plus setup notes. Any failure degrades
// to empty output; summarization is never allowed to break an export.
package aisummary

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"snapex/pkg/model/masset"
)

const (
	temperature = 0.2
	maxTokens   = 500

	// DisabledDescription is the sentinel description when analysis is
	// switched off.
	DisabledDescription = "AI analysis disabled"
)

const systemPrompt = `You are an expert GoHighLevel (GHL) workflow analyst. Your task is to analyze workflows and create concise documentation for asset management.

Focus on:
1. What the workflow does (its purpose and key actions)
2. What needs to be configured or customized (setup instructions)

Be specific about:
- Triggers and conditions
- Tags, custom fields, pipelines used
- Messages sent (SMS/Email)
- User assignments and notifications
- Any required customizations`

// Result is the parsed two-section summary.
type Result struct {
	Description string
	SetupNotes  string
}

// Summarizer holds the LLM handle and the enabled flag.
type Summarizer struct {
	// Model allows injecting a fake for testing; when nil and no API key
	// was configured, every call degrades to an empty Result.
	Model llms.Model

	enabled bool
	logger  *slog.Logger
}

// New builds a summarizer. An empty apiKey leaves the model unset, which
// turns Summarize into a no-op returning empty results.
func New(apiKey string, enabled bool, logger *slog.Logger) (*Summarizer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Summarizer{enabled: enabled, logger: logger}
	if !enabled || apiKey == "" {
		return s, nil
	}
	model, err := openai.New(openai.WithToken(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	s.Model = model
	return s, nil
}

// NewWithModel builds a summarizer around an existing model.
func NewWithModel(model llms.Model, enabled bool, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Summarizer{Model: model, enabled: enabled, logger: logger}
}

// Enabled reports whether analysis is switched on.
func (s *Summarizer) Enabled() bool {
	return s.enabled
}

// Summarize runs the analysis for one workflow. Disabled returns the
// sentinel without any call; a missing model or any downstream failure
// returns an empty Result.
func (s *Summarizer) Summarize(ctx context.Context, workflow masset.Record) Result {
	if !s.enabled {
		return Result{Description: DisabledDescription}
	}
	if s.Model == nil {
		return Result{}
	}

	prompt, err := buildPrompt(workflow)
	if err != nil {
		s.logger.Warn("summary prompt build failed", "workflow", workflow.DisplayName(), "error", err)
		return Result{}
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := s.Model.GenerateContent(ctx, messages,
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		s.logger.Warn("summary call failed", "workflow", workflow.DisplayName(), "error", err)
		return Result{}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return Result{}
	}
	return ParseResponse(resp.Choices[0].Content)
}

func buildPrompt(workflow masset.Record) (string, error) {
	workflowJSON, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Analyze this GoHighLevel workflow and provide documentation.\n\n"+
		"Workflow JSON:\n```json\n%s\n```\n\n"+
		"Provide your analysis in this EXACT format:\n\n"+
		"DESCRIPTION:\n"+
		"[Write a single concise sentence (40-60 words) describing what this workflow does. "+
		"Focus on the main purpose, triggers, and outcomes. "+
		"Example: \"Sends confirmation and reminder messages to both the customer and assigned user to ensure upcoming appointments are attended on time.\"]\n\n"+
		"SETUP NOTES:\n"+
		"[List specific setup instructions as comma-separated items. "+
		"Focus on things that need to be configured or customized. "+
		"Example: \"Add the user to the assign to user action, Add missed call contact tag, Connect to Home Service New Customer Pipeline\"]\n\n"+
		"Be specific and actionable. Only include essential setup steps.", workflowJSON), nil
}

var (
	descriptionRe = regexp.MustCompile(`(?is)DESCRIPTION:[ \t]*\n(.*?)(?:\n\s*SETUP NOTES:|$)`)
	setupNotesRe  = regexp.MustCompile(`(?is)SETUP NOTES:[ \t]*\n(.*)$`)
	newlineRunRe  = regexp.MustCompile(`\n+`)
	leadBulletRe  = regexp.MustCompile(`^[-•]\s*`)
)

// ParseResponse extracts the two anchored sections. Description newlines
// collapse to spaces; setup-note lines join with commas and lose a
// leading bullet.
func ParseResponse(text string) Result {
	var out Result
	if m := descriptionRe.FindStringSubmatch(text); m != nil {
		desc := strings.TrimSpace(m[1])
		out.Description = strings.TrimSpace(newlineRunRe.ReplaceAllString(desc, " "))
	}
	if m := setupNotesRe.FindStringSubmatch(text); m != nil {
		notes := strings.TrimSpace(m[1])
		notes = newlineRunRe.ReplaceAllString(notes, ", ")
		notes = leadBulletRe.ReplaceAllString(notes, "")
		out.SetupNotes = strings.TrimSpace(notes)
	}
	return out
}
