package norah

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

var engineNow = time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC)

func testEngine(t *testing.T, store DataStore) *Engine {
	t.Helper()
	return New(store, Config{Clock: func() time.Time { return engineNow }})
}

func freshClues(n int) []Clue {
	clues := make([]Clue, n)
	for i := range clues {
		clues[i] = Clue{
			ID:        fmt.Sprintf("c%d", i),
			Title:     "Il faro",
			Text:      fmt.Sprintf("La luce del faro numero %d illumina il porto", i),
			CreatedAt: engineNow,
		}
	}
	return clues
}

// greeted returns a session that already received its greeting.
func greeted(t *testing.T, e *Engine) *Session {
	t.Helper()
	s := e.NewSession()
	e.Reply(context.Background(), s, "ciao Norah")
	return s
}

func TestReplyFirstMessageIsGreeting(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007", clues: freshClues(4)})
	s := e.NewSession()

	got := e.Reply(context.Background(), s, "ciao, chi sei?")
	if want := Greeting(IntelContext{AgentCode: "AG-007"}); got != want {
		t.Errorf("expected greeting %q, got %q", want, got)
	}
	if st := s.Status(); st.MessageCount != 1 || st.State != StateIdle {
		t.Errorf("unexpected status after greeting: %+v", st)
	}
}

func TestReplySpoilerRefused(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007", clues: freshClues(4)})
	s := e.NewSession()

	got := e.Reply(context.Background(), s, "dove si trova il premio?")
	if !strings.HasPrefix(got, "🔒 **Agente AG-007**, ") {
		t.Errorf("expected spoiler refusal, got %q", got)
	}
	if body := strings.TrimPrefix(got, "🔒 **Agente AG-007**, "); strings.ContainsAny(body, "0123456789") {
		t.Errorf("refusal leaked digits: %q", body)
	}
	if s.Status().MessageCount != 0 {
		t.Error("guardrail blocks should not count as messages")
	}
}

func TestReplyEmptyInputUnclear(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007"})
	s := greeted(t, e)
	if got := e.Reply(context.Background(), s, ""); got != unclearText {
		t.Errorf("expected unclear text, got %q", got)
	}
	if got := e.Reply(context.Background(), s, "?!?!"); got != unclearText {
		t.Errorf("expected unclear text for punctuation, got %q", got)
	}
}

func TestReplyGatedWithoutClues(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007"})
	s := greeted(t, e)

	for _, intent := range []Intent{IntentClassify, IntentDecode, IntentPatterns, IntentProbability} {
		got := e.Reply(context.Background(), s, "analizza tutto", WithIntent(intent))
		if got != needMoreCluesText(IntelContext{}) {
			t.Errorf("%s: expected gate text, got %q", intent, got)
		}
		if !strings.Contains(got, "mancano ancora 3") {
			t.Errorf("%s: gate should say 3 clues are missing: %q", intent, got)
		}
	}
	if st := s.Status(); st.State != StateCollect || st.MessageCount != 1 {
		t.Errorf("gated replies should move to collect without counting: %+v", st)
	}

	for _, intent := range []Intent{IntentMentor, IntentAbout} {
		got := e.Reply(context.Background(), s, "aiutami un po'", WithIntent(intent))
		if strings.HasPrefix(got, "📂") {
			t.Errorf("%s should always be served, got gate text", intent)
		}
		if !strings.HasPrefix(got, lowConfidenceNote+"Fase raccolta (0/3 min): ") {
			t.Errorf("%s: expected note and collect prefix, got %q", intent, got)
		}
	}
}

func TestReplyLengthBounded(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007", clues: freshClues(12)})
	s := greeted(t, e)

	inputs := []string{
		"",
		strings.Repeat("a", 2000),
		"Привет, найди закономерности",
		"数据分析请",
		"trova pattern negli indizi",
		"decodifica questo indizio",
		"qual è la probabilità di trovarlo?",
	}
	for seed := 0; seed < 30; seed++ {
		for _, in := range inputs {
			got := e.Reply(context.Background(), s, in, WithSeed(seed))
			if n := utf8.RuneCountInString(got); n > 800 {
				t.Fatalf("seed %d input %.20q: reply has %d runes", seed, in, n)
			}
			if got == "" {
				t.Fatalf("seed %d input %.20q: empty reply", seed, in)
			}
		}
	}
}

func TestReplyDeterministic(t *testing.T) {
	store := &fakeStore{user: "u1", code: "AG-007", clues: freshClues(5)}
	a := testEngine(t, store)
	b := testEngine(t, store)
	sa, sb := greeted(t, a), greeted(t, b)

	for _, in := range []string{"trova pattern", "classifica gli indizi", "consigliami"} {
		x := a.Reply(context.Background(), sa, in)
		y := b.Reply(context.Background(), sb, in)
		if x != y {
			t.Errorf("input %q: replies differ\n%s\n%s", in, x, y)
		}
	}
}

func TestReplyStatePrefixAndNoNote(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007", clues: freshClues(10)})
	s := greeted(t, e)

	got := e.Reply(context.Background(), s, "trova pattern negli indizi", WithSeed(1))
	if !strings.HasPrefix(got, "Fase consulenza (10 indizi): ") {
		t.Errorf("expected advise prefix, got %q", got)
	}
	if strings.Contains(got, lowConfidenceNote) {
		t.Error("full confidence should not carry the low-confidence note")
	}
	if st := s.Status(); st.State != StateAdvise || st.MessageCount != 2 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func TestReplyStorePanicGivesErrorReply(t *testing.T) {
	e := testEngine(t, &fakeStore{panics: true})
	if got := e.Reply(context.Background(), e.NewSession(), "ciao"); got != ErrorReply {
		t.Errorf("expected error reply, got %q", got)
	}
}

type panicRouter struct{}

func (panicRouter) Classify(string, IntelContext) Intent { panic("router exploded") }

func TestReplyRouterPanicGivesErrorReply(t *testing.T) {
	e := New(&fakeStore{user: "u1", code: "AG-1", clues: freshClues(4)}, Config{
		Clock:  func() time.Time { return engineNow },
		Router: panicRouter{},
	})
	s := greeted(t, e)
	if got := e.Reply(context.Background(), s, "trova pattern"); got != ErrorReply {
		t.Errorf("expected error reply, got %q", got)
	}

	// the session lock must have been released
	done := make(chan struct{})
	go func() {
		s.Status()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("session mutex still held after panic")
	}
}

func TestReplyNilSession(t *testing.T) {
	e := testEngine(t, nil)
	if got := e.Reply(context.Background(), nil, "ciao"); got != ErrorReply {
		t.Errorf("expected error reply, got %q", got)
	}
}

func TestReplyGuestWithoutStore(t *testing.T) {
	e := testEngine(t, nil)
	got := e.Reply(context.Background(), e.NewSession(), "ciao")
	if !strings.Contains(got, "AG-GUEST") {
		t.Errorf("expected guest greeting, got %q", got)
	}
}

func TestResetSessionGreetsAgain(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007", clues: freshClues(4)})
	s := greeted(t, e)
	e.Reply(context.Background(), s, "trova pattern")

	e.ResetSession(s)
	if st := s.Status(); st.State != StateIdle || st.MessageCount != 0 {
		t.Fatalf("reset should return to idle/0, got %+v", st)
	}
	got := e.Reply(context.Background(), s, "eccomi di nuovo")
	if got != Greeting(IntelContext{AgentCode: "AG-007"}) {
		t.Errorf("expected greeting after reset, got %q", got)
	}
}

func TestReplySessionsIndependent(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007", clues: freshClues(4)})
	a := greeted(t, e)
	b := e.NewSession()

	e.Reply(context.Background(), a, "trova pattern")
	if st := b.Status(); st.MessageCount != 0 || st.State != StateIdle {
		t.Errorf("session b should be untouched, got %+v", st)
	}
}

func TestReplyConcurrentSameSession(t *testing.T) {
	e := testEngine(t, &fakeStore{user: "u1", code: "AG-007", clues: freshClues(4)})
	s := greeted(t, e)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Reply(context.Background(), s, "trova pattern")
		}()
	}
	wg.Wait()
	if got := s.Status().MessageCount; got != 21 {
		t.Errorf("expected 21 counted messages, got %d", got)
	}
}

func TestReplyRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	e := New(&fakeStore{user: "u1", code: "AG-007"}, Config{
		Clock:   func() time.Time { return engineNow },
		Metrics: m,
	})
	s := e.NewSession()

	e.Reply(context.Background(), s, "ciao")
	e.Reply(context.Background(), s, "dammi le coordinate")
	e.Reply(context.Background(), s, "classifica gli indizi", WithIntent(IntentClassify))

	if got := testutil.ToFloat64(m.replies.WithLabelValues(OutcomeGreeting)); got != 1 {
		t.Errorf("expected 1 greeting, got %v", got)
	}
	if got := testutil.ToFloat64(m.blocks.WithLabelValues(RuleSpoiler)); got != 1 {
		t.Errorf("expected 1 spoiler block, got %v", got)
	}
	if got := testutil.ToFloat64(m.replies.WithLabelValues(OutcomeGated)); got != 1 {
		t.Errorf("expected 1 gated reply, got %v", got)
	}
}

func TestClampReply(t *testing.T) {
	short := "Breve."
	if got := ClampReply(short, 800); got != short {
		t.Errorf("short text changed: %q", got)
	}

	// sentence end at 90% of the limit
	text := strings.Repeat("a", 89) + "." + strings.Repeat("b", 50)
	if got := ClampReply(text, 100); got != strings.Repeat("a", 89)+"." {
		t.Errorf("expected cut at sentence end, got %q", got)
	}

	// sentence end too early: hard cut with ellipsis
	text = strings.Repeat("a", 10) + "." + strings.Repeat("b", 200)
	got := ClampReply(text, 100)
	if utf8.RuneCountInString(got) != 100 || !strings.HasSuffix(got, "…") {
		t.Errorf("expected 100-rune hard cut, got %d runes %q", utf8.RuneCountInString(got), got)
	}

	if ClampReply("qualcosa", 0) != "" {
		t.Error("zero limit should give an empty string")
	}
}
