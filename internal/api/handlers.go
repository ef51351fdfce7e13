package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/banilabs/banitrack/internal/align"
	"github.com/banilabs/banitrack/pkg/dictation"
)

// positionPayload is the JSON shape of a reading position.
type positionPayload struct {
	DocID      string `json:"doc_id"`
	SeqIndex   int    `json:"seq_index"`
	LineInDoc  int    `json:"line_in_doc"`
	Text       string `json:"text"`
	Score      int    `json:"score"`
	Stage      string `json:"stage"`
	ReAnchored bool   `json:"re_anchored"`
}

func toPositionPayload(p align.Position) *positionPayload {
	return &positionPayload{
		DocID:      p.DocID,
		SeqIndex:   p.SeqIndex,
		LineInDoc:  p.LineInDoc,
		Text:       p.Text,
		Score:      p.Score,
		Stage:      p.Stage,
		ReAnchored: p.ReAnchored,
	}
}

// alignmentResponse is the JSON body for alignment queries and transcript
// submissions.
type alignmentResponse struct {
	Anchored bool             `json:"anchored"`
	Position *positionPayload `json:"position,omitempty"`
	Subtitle string           `json:"subtitle"`
}

func (s *Server) alignmentSnapshot() alignmentResponse {
	resp := alignmentResponse{Subtitle: s.app.Session().Subtitle()}
	if pos, ok := s.app.Session().Position(); ok {
		resp.Anchored = true
		resp.Position = toPositionPayload(pos)
	}
	return resp
}

// handleAlignment returns the current reading position and subtitle.
func (s *Server) handleAlignment(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.alignmentSnapshot())
}

// transcribeRequest is a transcript fragment submitted over HTTP, for
// deployments where recognition runs outside this process.
type transcribeRequest struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

// handleTranscribe feeds one transcript fragment through the captioning
// session and returns the resulting alignment snapshot.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		jsonError(w, "text is required", http.StatusBadRequest)
		return
	}

	s.app.Session().HandleFragment(dictation.Fragment{
		Text:       req.Text,
		Confidence: req.Confidence,
		IsFinal:    req.IsFinal,
	})
	writeJSON(w, http.StatusOK, s.alignmentSnapshot())
}

// handleReset clears the transcript buffers and alignment state.
func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.app.Session().Reset()
	w.WriteHeader(http.StatusNoContent)
}

// speechResponse reports the dictation lifecycle, or just the mode when the
// process runs without a recognizer.
type speechResponse struct {
	Mode          string  `json:"mode"`
	State         string  `json:"state,omitempty"`
	NoSpeechCount int     `json:"no_speech_count,omitempty"`
	Volume        float64 `json:"volume,omitempty"`
}

// handleSpeech returns the dictation manager status.
func (s *Server) handleSpeech(w http.ResponseWriter, _ *http.Request) {
	m := s.app.Manager()
	if m == nil {
		writeJSON(w, http.StatusOK, speechResponse{Mode: "api"})
		return
	}
	writeJSON(w, http.StatusOK, speechResponse{
		Mode:          "dictation",
		State:         m.State().String(),
		NoSpeechCount: m.NoSpeechCount(),
		Volume:        m.Volume(),
	})
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

// jsonError writes a JSON error body with the given status code.
func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
