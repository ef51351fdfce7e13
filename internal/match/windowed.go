package match

import (
	"strings"

	"github.com/banilabs/banitrack/pkg/corpus"
)

// Windowed searches the bounded look-ahead window lines[current..current+K]
// for the line best matching the tail of the spoken transcript. Candidate
// phrases of PhraseMinWords..PhraseMaxWords consecutive words are generated
// from the transcript tail and each window line takes the best of two scores
// per candidate:
//
//   - a contextual score rewarding in-sequence word matches, weighted higher
//     when the matched words sit near the line start
//   - the plain similarity of the candidate against same-length word windows
//     of the line
//
// The window deliberately ignores document boundaries: a flattened sequence
// is logically contiguous, so recitation flowing into the next document is
// matched exactly like any other line advance.
//
// The second return is false when no window line reaches the windowed
// threshold. Ties go to the lowest line index.
func (m *Matcher) Windowed(lines []corpus.SeqLine, current int, transcript string) (Result, bool) {
	if current < 0 || current >= len(lines) {
		return Result{}, false
	}

	candidates := m.candidatePhrases(transcript)
	if len(candidates) == 0 {
		return Result{}, false
	}

	end := current + m.cfg.Lookahead
	if end >= len(lines) {
		end = len(lines) - 1
	}

	best := Result{LineIndex: -1}
	for i := current; i <= end; i++ {
		lineWords := strings.Fields(lines[i].Line.Normalized)
		if len(lineWords) == 0 {
			continue
		}
		for _, cand := range candidates {
			score, stage := scoreCandidate(cand, lineWords)
			if score > best.Score {
				best = Result{LineIndex: i, Score: score, Span: strings.Join(cand, " "), Stage: stage}
			}
		}
	}

	if best.LineIndex < 0 || best.Score < m.cfg.WindowedThreshold {
		return Result{}, false
	}
	return best, true
}

// candidatePhrases generates all consecutive word runs of the configured
// lengths from the normalized transcript tail, newest words first preferred
// by generating longer phrases before shorter ones.
func (m *Matcher) candidatePhrases(transcript string) [][]string {
	words := strings.Fields(corpus.NewLine(transcript).Normalized)
	if len(words) > queryTailWords {
		words = words[len(words)-queryTailWords:]
	}
	if len(words) < m.cfg.PhraseMinWords {
		if len(words) == 0 {
			return nil
		}
		return [][]string{words}
	}

	var out [][]string
	for n := m.cfg.PhraseMaxWords; n >= m.cfg.PhraseMinWords; n-- {
		if n > len(words) {
			continue
		}
		for start := len(words) - n; start >= 0; start-- {
			out = append(out, words[start:start+n])
		}
	}
	return out
}

// scoreCandidate returns the better of the contextual and plain-similarity
// scores for one candidate phrase against one line, with the stage label of
// the winning component.
func scoreCandidate(cand, lineWords []string) (int, string) {
	ctx := contextualScore(cand, lineWords)
	sim := phraseSimilarity(cand, lineWords)
	if ctx >= sim {
		return ctx, "contextual"
	}
	return sim, "similarity"
}

// contextualScore walks the line looking for the candidate words in order.
// Each matched word contributes a positional weight that decays toward the
// line end, so a candidate matching the opening of a line outranks the same
// words scattered near its end. The result is scaled by the fraction of
// candidate words matched and stays on the 0–100 scale.
func contextualScore(cand, lineWords []string) int {
	matched := 0
	weight := 0.0
	pos := 0
	for _, cw := range cand {
		for j := pos; j < len(lineWords); j++ {
			if ratio(cw, lineWords[j]) >= wordMatchFloor {
				matched++
				weight += 1 - float64(j)/float64(len(lineWords))
				pos = j + 1
				break
			}
		}
	}
	if matched == 0 {
		return 0
	}
	coverage := float64(matched) / float64(len(cand))
	position := weight / float64(matched)
	return int(100*coverage*(0.6+0.4*position) + 0.5)
}

// phraseSimilarity slides a window of len(cand) words across the line and
// returns the best whole-phrase ratio. This catches candidates that match a
// line fragment verbatim even when individual words fail the per-word floor.
func phraseSimilarity(cand, lineWords []string) int {
	phrase := strings.Join(cand, " ")
	n := len(cand)
	if n > len(lineWords) {
		return ratio(phrase, strings.Join(lineWords, " "))
	}
	best := 0
	for start := 0; start+n <= len(lineWords); start++ {
		s := ratio(phrase, strings.Join(lineWords[start:start+n], " "))
		if s > best {
			best = s
		}
		if s == 100 {
			break
		}
	}
	return best
}
