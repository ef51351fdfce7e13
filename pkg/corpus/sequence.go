package corpus

// SeqLine is one line of a flattened multi-document sequence, annotated with
// the document it came from.
type SeqLine struct {
	Line

	// DocID is the id of the owning document.
	DocID string

	// DocStart marks the first line of a document: a boundary in the
	// flattened sequence. Boundaries are informational only and do not
	// interrupt windowed search.
	DocStart bool

	// LineInDoc is the line's index within its owning document.
	LineInDoc int
}

// Sequence flattens one or more fetched documents into a single logically
// contiguous, addressable line sequence for search and highlighting.
// Documents are appended in reading order. Sequence is not goroutine-safe;
// the owning aligner serialises access.
type Sequence struct {
	docs  []*Document
	lines []SeqLine
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Append adds doc's lines to the end of the sequence. A document already
// resident is ignored, so repeated fetch resolutions cannot duplicate lines.
func (s *Sequence) Append(doc *Document) {
	if doc == nil || s.Resident(doc.ID) {
		return
	}
	s.docs = append(s.docs, doc)
	for i, line := range doc.Lines {
		s.lines = append(s.lines, SeqLine{
			Line:      line,
			DocID:     doc.ID,
			DocStart:  i == 0,
			LineInDoc: i,
		})
	}
}

// Resident reports whether the document with the given id has been appended.
func (s *Sequence) Resident(id string) bool {
	for _, d := range s.docs {
		if d.ID == id {
			return true
		}
	}
	return false
}

// Len returns the total number of flattened lines.
func (s *Sequence) Len() int { return len(s.lines) }

// At returns the flattened line at index i.
func (s *Sequence) At(i int) SeqLine { return s.lines[i] }

// Lines returns the flattened line slice. Callers must not modify it.
func (s *Sequence) Lines() []SeqLine { return s.lines }

// Tail returns the last appended document, or nil for an empty sequence.
// Its Nav.Next drives look-ahead paging.
func (s *Sequence) Tail() *Document {
	if len(s.docs) == 0 {
		return nil
	}
	return s.docs[len(s.docs)-1]
}

// DocAt returns the document owning the flattened line at index i, or nil if
// i is out of range.
func (s *Sequence) DocAt(i int) *Document {
	if i < 0 || i >= len(s.lines) {
		return nil
	}
	id := s.lines[i].DocID
	for _, d := range s.docs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Reset drops all documents and lines.
func (s *Sequence) Reset() {
	s.docs = nil
	s.lines = nil
}
