package match

import (
	"strings"
	"testing"

	"github.com/banilabs/banitrack/pkg/corpus"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "ਸਤਿ ਨਾਮੁ", "ਸਤਿ ਨਾਮੁ", 100},
		{"empty left", "", "ਸਤਿ ਨਾਮੁ", 0},
		{"empty right", "ਸਤਿ ਨਾਮੁ", "", 0},
		{"both empty", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ratio(tt.a, tt.b); got != tt.want {
				t.Errorf("ratio(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if got := ratio("ਸਤਿ ਨਾਮੁ ਕਰਤਾ", "ਸਤ ਨਾਮ ਕਰਤਾ"); got <= 60 || got >= 100 {
		t.Errorf("near-miss ratio = %d, want strictly between 60 and 100", got)
	}
}

func TestSimilarityNormalizesFirst(t *testing.T) {
	// Danda and nukta differences vanish under normalization.
	if got := Similarity("ਸ਼ਬਦ ॥", "ਸਬਦ"); got != 100 {
		t.Errorf("Similarity = %d, want 100 after normalization", got)
	}
}

func TestContextualScorePrefersLineStart(t *testing.T) {
	cand := []string{"ਸਤਿ", "ਨਾਮੁ"}
	early := strings.Fields("ਸਤਿ ਨਾਮੁ ਕਰਤਾ ਪੁਰਖੁ ਨਿਰਭਉ ਨਿਰਵੈਰੁ")
	late := strings.Fields("ਕਰਤਾ ਪੁਰਖੁ ਨਿਰਭਉ ਨਿਰਵੈਰੁ ਸਤਿ ਨਾਮੁ")

	se := contextualScore(cand, early)
	sl := contextualScore(cand, late)
	if se <= sl {
		t.Errorf("line-start match scored %d, line-end %d; want start > end", se, sl)
	}
	if sl == 0 {
		t.Error("in-order words near line end must still score above zero")
	}
}

func TestContextualScoreNoMatches(t *testing.T) {
	if got := contextualScore([]string{"ਗਾਵਹਿ"}, strings.Fields("ਸਤਿ ਨਾਮੁ")); got != 0 {
		t.Errorf("score = %d, want 0 for disjoint words", got)
	}
}

func TestPhraseSimilarityFindsFragment(t *testing.T) {
	line := strings.Fields("ਸੋ ਦਰੁ ਕੇਹਾ ਸੋ ਘਰੁ ਕੇਹਾ ਜਿਤੁ ਬਹਿ ਸਰਬ ਸਮਾਲੇ")
	if got := phraseSimilarity([]string{"ਘਰੁ", "ਕੇਹਾ"}, line); got != 100 {
		t.Errorf("exact interior fragment = %d, want 100", got)
	}
	if got := phraseSimilarity([]string{"ਘਰ", "ਕੇਹਾ"}, line); got < 80 {
		t.Errorf("near interior fragment = %d, want >= 80", got)
	}
}

func TestLetterKeyScore(t *testing.T) {
	if got := letterKeyScore("ਧਧਰਗ", "ਧਧਰਗਜਸਤਸ"); got != 100 {
		t.Errorf("contained key = %d, want 100", got)
	}
	if got := letterKeyScore("ਸਦਕਸ", "ਧਧਰਗਜਸਤਸ"); got >= 50 {
		t.Errorf("unrelated key = %d, want < 50", got)
	}
}

func TestCandidatePhrases(t *testing.T) {
	m := NewMatcher(corpus.NewLibrary(nil), Config{})
	cands := m.candidatePhrases("ਧੰਨ ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ ਜਿਨਿ")
	if len(cands) == 0 {
		t.Fatal("no candidates generated")
	}
	for _, c := range cands {
		if len(c) < DefaultPhraseMinWords || len(c) > DefaultPhraseMaxWords {
			t.Errorf("candidate %v has %d words, want %d..%d",
				c, len(c), DefaultPhraseMinWords, DefaultPhraseMaxWords)
		}
	}
	// Longest trailing phrase comes first.
	if got := strings.Join(cands[0], " "); got != "ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ ਜਿਨਿ" {
		t.Errorf("first candidate = %q, want the four trailing words", got)
	}
}

func TestCandidatePhrasesShortTranscript(t *testing.T) {
	m := NewMatcher(corpus.NewLibrary(nil), Config{})
	cands := m.candidatePhrases("ਧੰਨ")
	if len(cands) != 1 || len(cands[0]) != 1 {
		t.Fatalf("cands = %v, want single one-word candidate", cands)
	}
	if got := m.candidatePhrases("  "); got != nil {
		t.Errorf("blank transcript produced candidates: %v", got)
	}
}
