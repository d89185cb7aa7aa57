package das

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"odras.app/odras/common/llm"
	"odras.app/odras/internal/knowledge"
	"odras.app/odras/internal/thread"
)

const historyLimit = 20

// Answer is the structured response returned to the caller.
type Answer struct {
	Answer     string   `json:"answer" jsonschema_description:"The assistant's answer to the question"`
	Confidence string   `json:"confidence" jsonschema:"enum=high,enum=medium,enum=low"`
	Sources    []string `json:"sources" jsonschema_description:"Knowledge asset titles the answer draws on"`
}

var answerSchema = llm.GenerateSchema[Answer]()

// Assistant answers project questions grounded in the project's activity
// thread and knowledge base.
type Assistant struct {
	llm     llm.Client
	threads thread.Reader
	search  knowledge.Search
	logger  *slog.Logger
}

func NewAssistant(client llm.Client, threads thread.Reader, search knowledge.Search, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		llm:     client,
		threads: threads,
		search:  search,
		logger:  logger,
	}
}

// Ask builds context from recent project activity and knowledge search,
// then asks the model for a structured answer.
func (a *Assistant) Ask(ctx context.Context, projectID, question string) (*Answer, error) {
	if a.llm == nil {
		return nil, errors.New("assistant is not configured")
	}

	var sections []string

	if a.threads != nil && projectID != "" {
		entries, err := a.threads.RecentEvents(ctx, projectID, historyLimit)
		if err != nil {
			a.logger.WarnContext(ctx, "failed to load project history",
				"project_id", projectID, "error", err)
		} else if len(entries) > 0 {
			sections = append(sections, formatHistory(entries))
		}
	}

	var hits []knowledge.Result
	if a.search != nil {
		var err error
		hits, err = a.search.Query(ctx, projectID, question, 5)
		if err != nil {
			a.logger.WarnContext(ctx, "knowledge search failed",
				"project_id", projectID, "error", err)
		} else if len(hits) > 0 {
			sections = append(sections, formatHits(hits))
		}
	}

	userPrompt := question
	if len(sections) > 0 {
		userPrompt = strings.Join(sections, "\n\n") + "\n\nQuestion: " + question
	}

	var answer Answer
	if _, err := a.llm.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		SchemaName:   "project_answer",
		Schema:       answerSchema,
		MaxTokens:    1500,
		Temperature:  llm.Temp(0.2),
	}, &answer); err != nil {
		return nil, fmt.Errorf("asking assistant: %w", err)
	}

	return &answer, nil
}

const systemPrompt = `You are the ODRAS digital assistant. Answer questions about the
project using the provided activity history and knowledge excerpts. If the
context does not support an answer, say so and set confidence to "low".`

func formatHistory(entries []thread.Entry) string {
	var b strings.Builder
	b.WriteString("Recent project activity:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s\n", e.CapturedAt.Format("2006-01-02 15:04"), e.Summary)
	}
	return b.String()
}

func formatHits(hits []knowledge.Result) string {
	var b strings.Builder
	b.WriteString("Knowledge excerpts:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s: %s\n", h.Title, h.Snippet)
	}
	return b.String()
}
