package quiz_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hanyumate/hanyumate/internal/ai"
	"github.com/hanyumate/hanyumate/internal/quiz"
)

const validRemoteJSON = `{
	"question": "What does 字0 mean?",
	"options": {"A": "meaning 1", "B": "meaning 0", "C": "meaning 2", "D": "meaning 3"},
	"correct": " b ",
	"explain": "字0 (zi0) means meaning 0"
}`

func newRemote(t *testing.T, provider *ai.MockProvider, opts ...quiz.RemoteOption) *quiz.RemoteSupplier {
	t.Helper()
	local := quiz.NewLocalSupplier(newBank(t, 6), quiz.NewRand(21))
	return quiz.NewRemoteSupplier(provider, local, opts...)
}

func TestRemoteSupplier_ValidResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"plain", validRemoteJSON},
		{"fenced", "```json\n" + validRemoteJSON + "\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := ai.NewMockProvider(tt.response)
			r := newRemote(t, mock)

			q, err := r.BuildQuestion(context.Background(), testLevel, 0, quiz.KindMeaning)
			if err != nil {
				t.Fatalf("BuildQuestion() error = %v", err)
			}
			checkQuestion(t, q, 4)
			if q.Source != quiz.SourceRemote {
				t.Errorf("Source = %q, want remote", q.Source)
			}
			if q.Correct != "B" {
				t.Errorf("Correct = %q, want B", q.Correct)
			}
			if q.Headword != "字0" {
				t.Errorf("Headword = %q", q.Headword)
			}
		})
	}
}

func TestRemoteSupplier_RequestShape(t *testing.T) {
	mock := ai.NewMockProvider(validRemoteJSON)
	r := newRemote(t, mock)

	if _, err := r.BuildQuestion(context.Background(), testLevel, 0, quiz.KindMeaning); err != nil {
		t.Fatal(err)
	}
	req := mock.LastRequest
	if req == nil {
		t.Fatal("completer was not called")
	}
	if req.ResponseFormat != ai.ResponseFormatJSON {
		t.Errorf("ResponseFormat = %q, want JSON", req.ResponseFormat)
	}
	if req.Task != ai.TaskQuizGeneration {
		t.Errorf("Task = %v, want quiz_generation", req.Task)
	}
	user := req.Messages[len(req.Messages)-1].Content
	for _, want := range []string{"HSK1", "字0", "zi0", `"meaning 5"`} {
		if !strings.Contains(user, want) {
			t.Errorf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestRemoteSupplier_FallsBack(t *testing.T) {
	tests := []struct {
		name     string
		provider *ai.MockProvider
	}{
		{"missing correct", ai.NewMockProvider(`{"question":"q","options":{"A":"meaning 1","B":"meaning 0","C":"meaning 2","D":"meaning 3"}}`)},
		{"unknown label", ai.NewMockProvider(`{"question":"q","options":{"A":"meaning 1","B":"meaning 0","C":"meaning 2","D":"meaning 3"},"correct":"E"}`)},
		{"duplicate options", ai.NewMockProvider(`{"question":"q","options":{"A":"meaning 0","B":"Meaning 0","C":"meaning 2","D":"meaning 3"},"correct":"A"}`)},
		{"missing option", ai.NewMockProvider(`{"question":"q","options":{"A":"meaning 1","B":"meaning 0","C":"meaning 2"},"correct":"A"}`)},
		{"not json", ai.NewMockProvider("Sure! The answer is B.")},
		{"provider error", &ai.MockProvider{Err: errors.New("503")}},
		{"timeout", &ai.MockProvider{Hang: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRemote(t, tt.provider, quiz.WithRemoteTimeout(20*time.Millisecond))

			q, err := r.BuildQuestion(context.Background(), testLevel, 0, quiz.KindMeaning)
			if err != nil {
				t.Fatalf("BuildQuestion() error = %v, want silent fallback", err)
			}
			checkQuestion(t, q, 4)
			if q.Source != quiz.SourceFallback {
				t.Errorf("Source = %q, want fallback", q.Source)
			}
			if text, _ := q.OptionText(q.Correct); text != "meaning 0" {
				t.Errorf("correct option = %q, want meaning 0", text)
			}
		})
	}
}

func TestRemoteSupplier_GenerateErrors(t *testing.T) {
	r := newRemote(t, ai.NewMockProvider(`{"question":"q"}`))

	_, err := r.Generate(context.Background(), quiz.RemoteRequest{Level: testLevel, Word: "字0"})
	if !errors.Is(err, quiz.ErrRemoteSupplier) {
		t.Fatalf("Generate() error = %v, want ErrRemoteSupplier", err)
	}
	var rerr *quiz.RemoteSupplierError
	if !errors.As(err, &rerr) || rerr.Op != "parse" {
		t.Errorf("error = %#v, want parse op", err)
	}

	cause := errors.New("quota")
	r = newRemote(t, &ai.MockProvider{Err: cause})
	_, err = r.Generate(context.Background(), quiz.RemoteRequest{Level: testLevel, Word: "字0"})
	if !errors.Is(err, cause) || !errors.Is(err, quiz.ErrRemoteSupplier) {
		t.Errorf("Generate() error = %v, want both sentinel and cause", err)
	}
}

func TestRemoteSupplier_CallerCancelled(t *testing.T) {
	r := newRemote(t, &ai.MockProvider{Hang: true})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.BuildQuestion(ctx, testLevel, 0, quiz.KindMeaning)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("BuildQuestion() error = %v, want the caller's context error", err)
	}
}

func TestRemoteSupplier_PronunciationIsLocal(t *testing.T) {
	mock := ai.NewMockProvider(validRemoteJSON)
	r := newRemote(t, mock)

	q, err := r.BuildQuestion(context.Background(), testLevel, 1, quiz.KindPronunciation)
	if err != nil {
		t.Fatal(err)
	}
	if mock.Calls() != 0 {
		t.Errorf("completer called %d times for a pronunciation question", mock.Calls())
	}
	if q.Source != quiz.SourceLocal {
		t.Errorf("Source = %q, want local", q.Source)
	}
	if kinds := r.Kinds(); len(kinds) != 1 || kinds[0] != quiz.KindMeaning {
		t.Errorf("Kinds() = %v, want [meaning]", kinds)
	}
}

func TestRemoteSupplier_ThreeOptions(t *testing.T) {
	local := quiz.NewLocalSupplier(newBank(t, 5), quiz.NewRand(22), quiz.WithOptionsPerQuestion(3))
	mock := ai.NewMockProvider(`{"question":"q","options":{"A":"meaning 0","B":"meaning 1","C":"meaning 2"},"correct":"A"}`)
	r := quiz.NewRemoteSupplier(mock, local)

	q, err := r.BuildQuestion(context.Background(), testLevel, 0, quiz.KindMeaning)
	if err != nil {
		t.Fatal(err)
	}
	checkQuestion(t, q, 3)
	if q.Source != quiz.SourceRemote {
		t.Errorf("Source = %q, want remote", q.Source)
	}
}
