// Package agent turns learner commands into lessons and quizzes.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hanyumate/hanyumate/internal/ai"
	"github.com/hanyumate/hanyumate/internal/chat"
	"github.com/hanyumate/hanyumate/internal/quiz"
	"github.com/hanyumate/hanyumate/internal/vocab"
)

const technicalErrorReply = "Sorry, something went wrong on our side. Please try again."

// bareAnswer matches "2B", "2 b" or "2. B".
var bareAnswer = regexp.MustCompile(`^\s*(\d+)\s*[.:)]?\s*([A-Za-z])\s*$`)

// EngineConfig holds dependencies for the agent engine.
type EngineConfig struct {
	Bank     *vocab.Bank
	AIRouter *ai.Router // optional; nil or empty disables AI questions
	Store    LearnerStore
	Events   EventLogger
	// PoolStore is shared by every learner's tracker, scoped by learner ID. Nil keeps pools in memory.
	PoolStore quiz.ConsumedStore
	// Budget caps AI tokens per learner. Nil means unlimited.
	Budget             ai.BudgetChecker
	QuestionsPerQuiz   int
	OptionsPerQuestion int
	RemoteTimeout      time.Duration
	Language           string
	UseAI              bool // initial AI toggle for new learners
	Seed               uint64
}

// Engine is the core command processor.
type Engine struct {
	bank          *vocab.Bank
	aiRouter      *ai.Router
	store         LearnerStore
	events        EventLogger
	poolStore     quiz.ConsumedStore
	budget        ai.BudgetChecker
	questions     int
	options       int
	remoteTimeout time.Duration
	language      string
	useAI         bool
	rng           *quiz.Rand

	mu sync.Mutex // guards learner creation
}

// NewEngine creates a new agent engine.
func NewEngine(cfg EngineConfig) *Engine {
	bank := cfg.Bank
	if bank == nil {
		bank = vocab.Builtin()
	}
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	questions := cfg.QuestionsPerQuiz
	if questions <= 0 {
		questions = quiz.DefaultQuestionsPerQuiz
	}
	options := cfg.OptionsPerQuestion
	if options == 0 {
		options = quiz.DefaultOptionsPerQuestion
	}
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = quiz.DefaultRemoteTimeout
	}
	language := cfg.Language
	if language == "" {
		language = vocab.DefaultLanguage
	}
	rng := quiz.NewSeededRand()
	if cfg.Seed != 0 {
		rng = quiz.NewRand(cfg.Seed)
	}
	return &Engine{
		bank:          bank,
		aiRouter:      cfg.AIRouter,
		store:         store,
		events:        events,
		poolStore:     cfg.PoolStore,
		budget:        cfg.Budget,
		questions:     questions,
		options:       options,
		remoteTimeout: timeout,
		language:      language,
		useAI:         cfg.UseAI,
		rng:           rng,
	}
}

// ProcessMessage handles an incoming message and returns a response.
func (e *Engine) ProcessMessage(ctx context.Context, msg chat.InboundMessage) (string, error) {
	slog.Info("processing message",
		"channel", msg.Channel,
		"user_id", msg.UserID,
		"text_len", len(msg.Text),
	)

	learner, err := e.getOrCreateLearner(msg.UserID)
	if err != nil {
		slog.Error("failed to get learner", "error", err)
		return technicalErrorReply, nil
	}
	learner.mu.Lock()
	defer learner.mu.Unlock()

	text := strings.TrimSpace(msg.Text)
	if strings.HasPrefix(text, "/") {
		return e.handleCommand(ctx, learner, msg, text)
	}
	if m := bareAnswer.FindStringSubmatch(text); m != nil {
		return e.handleAnswer(learner, m[1], m[2]), nil
	}
	return "I didn't understand that. Type /help to see the commands.", nil
}

func (e *Engine) handleCommand(ctx context.Context, l *Learner, msg chat.InboundMessage, text string) (string, error) {
	fields := strings.Fields(text)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "/start":
		return e.handleStart(l, msg), nil
	case "/help":
		return helpText, nil
	case "/level":
		return e.handleLevel(l, args), nil
	case "/lesson":
		return e.renderLesson(l), nil
	case "/next":
		l.LessonIndex++
		return e.renderLesson(l), nil
	case "/ai":
		return e.handleAIToggle(l, args), nil
	case "/quiz":
		n := e.questions
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 1 {
				return "Usage: /quiz [number of questions]", nil
			}
			n = v
		}
		return e.startQuiz(ctx, l, n)
	case "/regenerate":
		n := e.questions
		if l.Quiz != nil {
			n = len(l.Quiz.Questions)
		}
		return e.startQuiz(ctx, l, n)
	case "/answer":
		if len(args) != 2 {
			return "Usage: /answer <question number> <letter>, e.g. /answer 2 B", nil
		}
		return e.handleAnswer(l, args[0], args[1]), nil
	case "/submit":
		return e.handleSubmit(l), nil
	case "/score":
		return e.handleScore(l), nil
	case "/example":
		return e.handleExample(ctx, l), nil
	default:
		return fmt.Sprintf("Unknown command: %s\nType /help to see the commands.", cmd), nil
	}
}

const helpText = `Commands:
/level [HSK1|HSK2|HSK3] — show or change your level
/lesson — show the current word
/next — show the next word
/example — example sentence for the current word
/ai on|off — generate quiz questions with AI
/quiz [n] — start a quiz
/regenerate — replace the quiz with a new one
/answer 2 B — answer question 2 (or just type 2B)
/submit — submit and see results
/score — show your score`

func (e *Engine) handleStart(l *Learner, msg chat.InboundMessage) string {
	name := msg.Name
	if name == "" {
		name = "there"
	}
	levels := make([]string, 0, len(e.bank.Levels()))
	for _, lv := range e.bank.Levels() {
		levels = append(levels, lv.String())
	}

	return fmt.Sprintf(`Hi %s! 你好!

I'm HanyuMate, your Chinese vocabulary trainer.
Levels: %s (you are on %s)

%s`, name, strings.Join(levels, ", "), l.Level, helpText)
}

func (e *Engine) handleLevel(l *Learner, args []string) string {
	if len(args) == 0 {
		return fmt.Sprintf("Your level is %s.", l.Level)
	}
	level := vocab.ParseLevel(args[0])
	if !e.bank.HasLevel(level) {
		return fmt.Sprintf("Unknown level %q.", args[0])
	}
	if level != l.Level {
		l.Level = level
		l.LessonIndex = 0
	}
	return fmt.Sprintf("Level set to %s (%d words).", level, e.bank.Size(level))
}

func (e *Engine) currentEntry(l *Learner) (vocab.Entry, int, int) {
	size := e.bank.Size(l.Level)
	idx := l.LessonIndex % size
	entry, _ := e.bank.Entry(l.Level, idx)
	return entry, idx, size
}

func (e *Engine) renderLesson(l *Learner) string {
	entry, idx, size := e.currentEntry(l)
	return fmt.Sprintf("%s\n• Pinyin: %s\n• Meaning: %s\n(%s %d/%d — /next for the next word)",
		entry.Headword, entry.Pronunciation, entry.Meaning(e.language), l.Level, idx+1, size)
}

func (e *Engine) handleAIToggle(l *Learner, args []string) string {
	if len(args) == 0 {
		state := "off"
		if l.UseAI {
			state = "on"
		}
		return fmt.Sprintf("AI question generation is %s.", state)
	}
	switch strings.ToLower(args[0]) {
	case "on":
		l.UseAI = true
		if !e.hasAI() {
			return "AI question generation is on, but no AI provider is configured. Built-in questions will be used."
		}
		return "AI question generation is on."
	case "off":
		l.UseAI = false
		return "AI question generation is off."
	default:
		return "Usage: /ai on|off"
	}
}

func (e *Engine) startQuiz(ctx context.Context, l *Learner, n int) (string, error) {
	n = min(n, e.bank.Size(l.Level))

	supplier, remote := e.supplierFor(l)
	session, err := quiz.Start(ctx, quiz.StartRequest{
		Level:    l.Level,
		Count:    n,
		Supplier: supplier,
		Tracker:  l.Pool,
	})
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, quiz.ErrDistractorCollision):
		return "I couldn't build distinct answer options for this level. Please try again.", nil
	default:
		slog.Error("quiz start failed", "learner_id", l.ID, "level", l.Level, "error", err)
		return technicalErrorReply, nil
	}
	l.Quiz = session

	e.logEvent(l, session, EventQuizStarted, map[string]any{
		"questions": len(session.Questions),
		"remote":    remote,
	})
	if session.PoolReset {
		e.logEvent(l, session, EventPoolReset, nil)
	}
	if fb := session.Fallbacks(); fb > 0 {
		e.logEvent(l, session, EventRemoteFallback, map[string]any{"questions": fb})
	}

	var b strings.Builder
	if session.PoolReset {
		fmt.Fprintf(&b, "You've practised every %s word, so the word pool has been reset.\n\n", l.Level)
	}
	if l.UseAI && !e.hasAI() {
		b.WriteString("AI is on but no provider is configured; using built-in questions.\n\n")
	}
	b.WriteString(renderQuiz(session))
	return b.String(), nil
}

// supplierFor returns the remote supplier when the learner wants AI and a provider exists.
func (e *Engine) supplierFor(l *Learner) (quiz.Supplier, bool) {
	local := quiz.NewLocalSupplier(e.bank, e.rng,
		quiz.WithOptionsPerQuestion(e.options),
		quiz.WithLanguage(e.language),
	)
	if !l.UseAI || !e.hasAI() {
		return local, false
	}

	var completer ai.Completer = e.aiRouter
	if e.budget != nil {
		completer = ai.WithBudget(e.aiRouter, e.budget, l.ID)
	}
	return quiz.NewRemoteSupplier(completer, local, quiz.WithRemoteTimeout(e.remoteTimeout)), true
}

func renderQuiz(s *quiz.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s quiz (%d questions)\n", s.Level, len(s.Questions))
	for i, q := range s.Questions {
		fmt.Fprintf(&b, "\nQ%d. %s\n", i+1, q.Prompt)
		for _, o := range q.Options {
			fmt.Fprintf(&b, "  %s. %s\n", o.Label, o.Text)
		}
	}
	b.WriteString("\nAnswer with /answer 1 A (or just 1A), then /submit.")
	return b.String()
}

func (e *Engine) handleAnswer(l *Learner, number, label string) string {
	if l.Quiz == nil {
		return "No quiz yet. Start one with /quiz."
	}
	if l.Quiz.Submitted() {
		return "This quiz is already submitted. Start a new one with /quiz."
	}
	n, err := strconv.Atoi(number)
	if err != nil || !l.Quiz.RecordAnswer(n, label) {
		return fmt.Sprintf("Can't record %s %s: pick a question 1-%d and one of its letters.",
			number, strings.ToUpper(label), len(l.Quiz.Questions))
	}
	return fmt.Sprintf("Q%d: %s (%d/%d answered)", n, strings.ToUpper(strings.TrimSpace(label)),
		l.Quiz.Answered(), len(l.Quiz.Questions))
}

func (e *Engine) handleSubmit(l *Learner) string {
	if l.Quiz == nil {
		return "No quiz yet. Start one with /quiz."
	}
	if err := l.Quiz.Submit(); err != nil {
		if errors.Is(err, quiz.ErrAlreadySubmitted) {
			return "This quiz is already submitted. Start a new one with /quiz."
		}
		return technicalErrorReply
	}

	results, _ := l.Quiz.Results()
	correct, total, _ := l.Quiz.Score()
	e.logEvent(l, l.Quiz, EventQuizSubmitted, map[string]any{
		"correct":  correct,
		"total":    total,
		"answered": l.Quiz.Answered(),
	})
	return renderResults(results, correct, total)
}

func renderResults(results []quiz.Result, correct, total int) string {
	var b strings.Builder
	for _, r := range results {
		if r.Correct {
			fmt.Fprintf(&b, "Q%d ✅ %s\n", r.Number, r.Question.Explanation)
			continue
		}
		chosen := r.Chosen
		if chosen == "" {
			chosen = "-"
		}
		text, _ := r.Question.OptionText(r.Question.Correct)
		fmt.Fprintf(&b, "Q%d ❌ Your answer: %s | Correct: %s (%s)\n", r.Number, chosen, r.Question.Correct, text)
	}
	fmt.Fprintf(&b, "Score: %d/%d", correct, total)
	return b.String()
}

func (e *Engine) handleScore(l *Learner) string {
	if l.Quiz == nil {
		return "No quiz yet. Start one with /quiz."
	}
	correct, total, err := l.Quiz.Score()
	if errors.Is(err, quiz.ErrNotSubmitted) {
		return fmt.Sprintf("Submit the quiz first (/submit). %d/%d answered so far.", l.Quiz.Answered(), len(l.Quiz.Questions))
	}
	return fmt.Sprintf("Score: %d/%d", correct, total)
}

func (e *Engine) handleExample(ctx context.Context, l *Learner) string {
	entry, _, _ := e.currentEntry(l)
	if !e.hasAI() {
		return fmt.Sprintf("Example sentences need an AI provider. %s (%s) → %s", entry.Headword, entry.Pronunciation, entry.Meaning(e.language))
	}

	var completer ai.Completer = e.aiRouter
	if e.budget != nil {
		completer = ai.WithBudget(e.aiRouter, e.budget, l.ID)
	}
	callCtx, cancel := context.WithTimeout(ctx, e.remoteTimeout)
	defer cancel()

	resp, err := completer.Complete(callCtx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: "You are a friendly Chinese tutor. Keep everything short and simple (CEFR A1–A2)."},
			{Role: "user", Content: fmt.Sprintf(
				"Write one short %s example sentence using %s (%s, \"%s\"). Give the sentence, its pinyin and a translation in language %q, one per line.",
				l.Level, entry.Headword, entry.Pronunciation, entry.Meaning(e.language), e.language)},
		},
		Task:        ai.TaskExampleSentence,
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		slog.Warn("example sentence failed", "learner_id", l.ID, "word", entry.Headword, "error", err)
		return fmt.Sprintf("No example sentence available right now. %s (%s) → %s", entry.Headword, entry.Pronunciation, entry.Meaning(e.language))
	}
	return strings.TrimSpace(resp.Content)
}

func (e *Engine) hasAI() bool {
	return e.aiRouter != nil && e.aiRouter.HasProvider()
}

func (e *Engine) getOrCreateLearner(userID string) (*Learner, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if l, found := e.store.GetLearner(userID); found {
		return l, nil
	}

	opts := []quiz.PoolOption{quiz.WithScope(userID)}
	if e.poolStore != nil {
		opts = append(opts, quiz.WithConsumedStore(e.poolStore))
	}
	l := &Learner{
		ID:    userID,
		Level: e.bank.Levels()[0],
		UseAI: e.useAI,
		Pool:  quiz.NewPoolTracker(e.bank, e.rng, opts...),
	}
	if err := e.store.PutLearner(l); err != nil {
		return nil, err
	}
	return l, nil
}

func (e *Engine) logEvent(l *Learner, s *quiz.Session, eventType string, data map[string]any) {
	if err := e.events.LogEvent(Event{
		LearnerID: l.ID,
		SessionID: s.ID,
		EventType: eventType,
		Level:     s.Level.String(),
		Data:      data,
	}); err != nil {
		slog.Warn("failed to log event", "type", eventType, "learner_id", l.ID, "error", err)
	}
}
