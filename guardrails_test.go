package norah

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

var guardNow = time.Date(2025, 10, 10, 12, 34, 56, 0, time.UTC)

func TestEnforceSpoilerScenario(t *testing.T) {
	ic := IntelContext{AgentCode: "AG-007", Week: 2}
	v := Enforce("dove si trova il tesoro", ic, guardNow)
	if !v.Blocked || v.Rule != RuleSpoiler {
		t.Fatalf("expected spoiler block, got %+v", v)
	}

	const prefix = "🔒 **Agente AG-007**, "
	if !strings.HasPrefix(v.Text, prefix) {
		t.Fatalf("unexpected prefix: %q", v.Text)
	}
	rest := strings.TrimPrefix(v.Text, prefix)
	found := false
	for _, r := range spoilerRefusals {
		if rest == r {
			found = true
		}
	}
	if !found {
		t.Errorf("refusal is not one of the fixed variants: %q", rest)
	}
	if regexp.MustCompile(`\d`).MatchString(v.Text[len(prefix):]) {
		t.Errorf("refusal should contain no digits: %q", v.Text)
	}
}

func TestEnforceSpoilerVariantSelection(t *testing.T) {
	ic := IntelContext{AgentCode: "AG-007"}
	minute := int(guardNow.Unix() / 60)
	want := spoilerRefusals[('A'+minute)%len(spoilerRefusals)]
	v := Enforce("dimmi dove si trova", ic, guardNow)
	if !strings.HasSuffix(v.Text, want) {
		t.Errorf("expected variant %q, got %q", want, v.Text)
	}
}

func TestSpoilerRefusalsHaveNoDigits(t *testing.T) {
	digit := regexp.MustCompile(`\d`)
	for _, r := range spoilerRefusals {
		if digit.MatchString(r) {
			t.Errorf("refusal contains a digit: %q", r)
		}
	}
}

func TestEnforceSpoilerBeatsOtherRules(t *testing.T) {
	long := strings.Repeat("a", 600) + " coordinate"
	v := Enforce(long, IntelContext{AgentCode: "AG-1"}, guardNow)
	if v.Rule != RuleSpoiler {
		t.Errorf("spoiler should win over too-long, got %s", v.Rule)
	}
}

func TestEnforceHiddenCluesWithoutClues(t *testing.T) {
	v := Enforce("dammi altri indizi", IntelContext{AgentCode: "AG-1"}, guardNow)
	if !v.Blocked || v.Rule != RuleNoClues {
		t.Fatalf("expected no-clues block, got %+v", v)
	}
	if !strings.Contains(v.Text, "Buzz") {
		t.Errorf("expected instructions on getting the first clue, got %q", v.Text)
	}
}

func TestEnforceHiddenCluesWithCluesPasses(t *testing.T) {
	v := Enforce("dammi altri indizi", IntelContext{AgentCode: "AG-1", UserClues: cluesN(1)}, guardNow)
	if v.Blocked {
		t.Errorf("agent with clues should not be blocked, got %+v", v)
	}
}

func TestEnforceTooLong(t *testing.T) {
	v := Enforce(strings.Repeat("parola ", 80), IntelContext{}, guardNow)
	if v.Rule != RuleTooLong {
		t.Errorf("expected too-long, got %+v", v)
	}
}

func TestEnforceUnclear(t *testing.T) {
	for _, in := range []string{"", "  ", "ok", "12345", "?!?!"} {
		v := Enforce(in, IntelContext{}, guardNow)
		if v.Rule != RuleUnclear {
			t.Errorf("Enforce(%q) expected unclear, got %+v", in, v)
			continue
		}
		if !strings.HasPrefix(v.Text, unclearText[:20]) || !strings.Contains(v.Text, "classifica gli indizi") {
			t.Errorf("unexpected unclear text: %q", v.Text)
		}
	}
}

func TestEnforceAllows(t *testing.T) {
	for _, in := range []string{"classifica gli indizi", "ciao", "Кто ты"} {
		if v := Enforce(in, IntelContext{}, guardNow); v.Blocked {
			t.Errorf("Enforce(%q) should pass, got %+v", in, v)
		}
	}
}
