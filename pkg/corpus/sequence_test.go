package corpus_test

import (
	"testing"

	"github.com/banilabs/banitrack/pkg/corpus"
)

func doc(id string, next string, raws ...string) *corpus.Document {
	d := &corpus.Document{ID: id, Nav: corpus.Nav{Next: next}}
	for _, r := range raws {
		d.Lines = append(d.Lines, corpus.NewLine(r))
	}
	return d
}

func TestSequenceAppendFlattens(t *testing.T) {
	s := corpus.NewSequence()
	s.Append(doc("1", "2", "ਸੋ ਦਰੁ ਕੇਹਾ", "ਸੋ ਘਰੁ ਕੇਹਾ"))
	s.Append(doc("2", "", "ਗਾਵਹਿ ਤੁਹਨੋ ਪਉਣੁ ਪਾਣੀ"))

	if s.Len() != 3 {
		t.Fatalf("Len = %d, want 3", s.Len())
	}
	if !s.At(0).DocStart || s.At(1).DocStart || !s.At(2).DocStart {
		t.Error("DocStart boundary flags wrong")
	}
	if s.At(2).DocID != "2" || s.At(2).LineInDoc != 0 {
		t.Errorf("flattened line attribution wrong: %+v", s.At(2))
	}
	if s.Tail().ID != "2" {
		t.Errorf("Tail = %q, want 2", s.Tail().ID)
	}
}

func TestSequenceAppendDeduplicates(t *testing.T) {
	s := corpus.NewSequence()
	d := doc("1", "", "ਸੋ ਦਰੁ ਕੇਹਾ")
	s.Append(d)
	s.Append(d)
	if s.Len() != 1 {
		t.Errorf("duplicate append grew sequence: Len = %d", s.Len())
	}
	if !s.Resident("1") {
		t.Error("Resident(1) = false after append")
	}
}

func TestSequenceDocAt(t *testing.T) {
	s := corpus.NewSequence()
	s.Append(doc("1", "", "ਸੋ ਦਰੁ ਕੇਹਾ", "ਸੋ ਘਰੁ ਕੇਹਾ"))
	if d := s.DocAt(1); d == nil || d.ID != "1" {
		t.Errorf("DocAt(1) = %v, want doc 1", d)
	}
	if d := s.DocAt(5); d != nil {
		t.Errorf("DocAt out of range = %v, want nil", d)
	}
}

func TestSequenceReset(t *testing.T) {
	s := corpus.NewSequence()
	s.Append(doc("1", "", "ਸੋ ਦਰੁ ਕੇਹਾ"))
	s.Reset()
	if s.Len() != 0 || s.Tail() != nil || s.Resident("1") {
		t.Error("Reset did not clear the sequence")
	}
}
