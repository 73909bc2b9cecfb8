package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"

	"github.com/hanyumate/hanyumate/internal/ai"
	"github.com/hanyumate/hanyumate/internal/vocab"
)

const (
	DefaultRemoteTimeout = 30 * time.Second
	maxCandidateMeanings = 30
	remoteTemperature    = 0.4
	remoteMaxTokens      = 512
)

// RemoteRequest is what the text generator is told about the word.
type RemoteRequest struct {
	Level             vocab.Level
	Word              string
	Pronunciation     string
	CandidateMeanings []string
}

// RemoteSupplier asks an LLM for meaning questions and falls back to its local
// supplier whenever the call or the response is unusable.
type RemoteSupplier struct {
	completer ai.Completer
	local     *LocalSupplier
	timeout   time.Duration
	labels    []string
	schema    *gojsonschema.Schema
}

// RemoteOption configures a RemoteSupplier.
type RemoteOption func(*RemoteSupplier)

// WithRemoteTimeout bounds each remote call.
func WithRemoteTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteSupplier) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewRemoteSupplier composes a completer with the local fallback. Option count and
// meaning language follow the local supplier.
func NewRemoteSupplier(completer ai.Completer, local *LocalSupplier, opts ...RemoteOption) *RemoteSupplier {
	labels := Labels[:local.OptionsPerQuestion()]
	r := &RemoteSupplier{
		completer: completer,
		local:     local,
		timeout:   DefaultRemoteTimeout,
		labels:    labels,
		schema:    mustQuestionSchema(labels),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Kinds is meaning only; the generator is not asked about pronunciation.
func (r *RemoteSupplier) Kinds() []Kind {
	return []Kind{KindMeaning}
}

// BuildQuestion never returns a remote failure: it degrades to a local question.
// It does return the caller's context error when the caller gave up, so the
// result can be discarded.
func (r *RemoteSupplier) BuildQuestion(ctx context.Context, level vocab.Level, index int, kind Kind) (Question, error) {
	if kind != KindMeaning {
		return r.local.BuildQuestion(ctx, level, index, kind)
	}

	entries, err := r.local.bank.Entries(level)
	if err != nil {
		return Question{}, err
	}
	if index < 0 || index >= len(entries) {
		return Question{}, fmt.Errorf("entry index %d out of range for level %s", index, level)
	}
	target := entries[index]

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q, err := r.Generate(callCtx, RemoteRequest{
		Level:             level,
		Word:              target.Headword,
		Pronunciation:     target.Pronunciation,
		CandidateMeanings: candidateMeanings(entries, r.local.Language()),
	})
	if err == nil {
		return q, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Question{}, ctxErr
	}

	slog.Warn("remote question failed, using local question",
		"level", level,
		"word", target.Headword,
		"error", err,
	)
	q, err = r.local.BuildQuestion(ctx, level, index, kind)
	if err != nil {
		return Question{}, err
	}
	q.Source = SourceFallback
	return q, nil
}

// Generate performs one remote call. Every failure is a *RemoteSupplierError.
func (r *RemoteSupplier) Generate(ctx context.Context, req RemoteRequest) (Question, error) {
	resp, err := r.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: r.systemPrompt()},
			{Role: "user", Content: r.userPrompt(req)},
		},
		Task:           ai.TaskQuizGeneration,
		Temperature:    remoteTemperature,
		MaxTokens:      remoteMaxTokens,
		ResponseFormat: ai.ResponseFormatJSON,
	})
	if err != nil {
		return Question{}, &RemoteSupplierError{Op: "complete", Err: err}
	}

	q, err := r.parse(resp.Content, req)
	if err != nil {
		return Question{}, &RemoteSupplierError{Op: "parse", Err: err}
	}
	return q, nil
}

type remoteQuestion struct {
	Question string            `json:"question"`
	Options  map[string]string `json:"options"`
	Correct  string            `json:"correct"`
	Explain  string            `json:"explain"`
}

func (r *RemoteSupplier) parse(content string, req RemoteRequest) (Question, error) {
	cleaned := stripCodeFences(content)

	result, err := r.schema.Validate(gojsonschema.NewStringLoader(cleaned))
	if err != nil {
		return Question{}, fmt.Errorf("malformed JSON: %w", err)
	}
	if !result.Valid() {
		msgs := lo.Map(result.Errors(), func(e gojsonschema.ResultError, _ int) string {
			return e.String()
		})
		return Question{}, fmt.Errorf("schema violation: %s", strings.Join(msgs, "; "))
	}

	var rq remoteQuestion
	if err := json.Unmarshal([]byte(cleaned), &rq); err != nil {
		return Question{}, fmt.Errorf("decoding question: %w", err)
	}

	correct := strings.ToUpper(strings.TrimSpace(rq.Correct))
	if !lo.Contains(r.labels, correct) {
		return Question{}, fmt.Errorf("correct %q is not one of %v", rq.Correct, r.labels)
	}

	q := Question{
		Kind:        KindMeaning,
		Headword:    req.Word,
		Prompt:      strings.TrimSpace(rq.Question),
		Correct:     correct,
		Explanation: strings.TrimSpace(rq.Explain),
		Source:      SourceRemote,
	}
	if q.Explanation == "" {
		q.Explanation = fmt.Sprintf("%s (%s)", req.Word, req.Pronunciation)
	}
	for _, label := range r.labels {
		q.Options = append(q.Options, Option{Label: label, Text: strings.TrimSpace(rq.Options[label])})
	}

	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (r *RemoteSupplier) systemPrompt() string {
	return fmt.Sprintf(`You are a Chinese vocabulary tutor for HSK learners.
Return ONLY a JSON object with fields: question, options (%s), correct, explain.`, strings.Join(r.labels, ","))
}

func (r *RemoteSupplier) userPrompt(req RemoteRequest) string {
	pool, _ := json.Marshal(req.CandidateMeanings)
	return fmt.Sprintf(`HSK level: %s
Word: %s
Pinyin: %s
Task: Give the standard CEFR A1–A2 meaning of the word as the correct option and create %d realistic distractors.
Helpful pool of possible meanings: %s
Return STRICT JSON, no extra text.`,
		req.Level, req.Word, req.Pronunciation, len(r.labels)-1, pool)
}

// candidateMeanings is the de-duplicated, capped meaning list of a level.
func candidateMeanings(entries []vocab.Entry, lang string) []string {
	meanings := lo.Uniq(lo.Map(entries, func(e vocab.Entry, _ int) string {
		return e.Meaning(lang)
	}))
	if len(meanings) > maxCandidateMeanings {
		meanings = meanings[:maxCandidateMeanings]
	}
	return meanings
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func mustQuestionSchema(labels []string) *gojsonschema.Schema {
	optionProps := map[string]any{}
	for _, l := range labels {
		optionProps[l] = map[string]any{"type": "string", "minLength": 1}
	}
	doc := map[string]any{
		"type":     "object",
		"required": []string{"question", "options", "correct"},
		"properties": map[string]any{
			"question": map[string]any{"type": "string", "minLength": 1},
			"options": map[string]any{
				"type":       "object",
				"required":   labels,
				"properties": optionProps,
			},
			"correct": map[string]any{"type": "string", "minLength": 1},
			"explain": map[string]any{"type": "string"},
		},
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(errors.Join(errors.New("quiz: building question schema"), err))
	}
	return schema
}
