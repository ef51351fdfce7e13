package banidb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banilabs/banitrack/pkg/corpus"
	"github.com/banilabs/banitrack/pkg/corpus/banidb"
)

const searchBody = `{
	"verses": [
		{"shabadId": 1404, "verse": {"unicode": "ਧੰਨ ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ ਜਿਨਿ ਸਿਰਿਆ ਤਿਨੈ ਸਵਾਰਿਆ ॥"}}
	]
}`

const shabadBody = `{
	"shabadInfo": {
		"shabadId": 1404,
		"pageNo": 968,
		"source": {"english": "Sri Guru Granth Sahib Ji"},
		"raag": {"english": "Raag Raamkalee"},
		"writer": {"english": "Balvand and Sata"}
	},
	"verses": [
		{"verse": {"unicode": "ਧੰਨ ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ ਜਿਨਿ ਸਿਰਿਆ ਤਿਨੈ ਸਵਾਰਿਆ ॥"}},
		{"verse": {"unicode": "ਪੂਰੀ ਹੋਈ ਕਰਾਮਾਤਿ ਆਪਿ ਸਿਰਜਣਹਾਰੈ ਧਾਰਿਆ ॥"}}
	],
	"navigation": {"previous": 1403, "next": 1405}
}`

// newServer returns a test API plus a counter of requests per path prefix.
func newServer(t *testing.T) (*httptest.Server, map[string]int) {
	t.Helper()
	hits := make(map[string]int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case len(r.URL.Path) > 8 && r.URL.Path[:8] == "/search/":
			hits["search"]++
			w.Write([]byte(searchBody))
		case len(r.URL.Path) > 9 && r.URL.Path[:9] == "/shabads/":
			hits["shabad"]++
			w.Write([]byte(shabadBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func TestResolveDocument(t *testing.T) {
	srv, _ := newServer(t)
	c := banidb.New(banidb.WithBaseURL(srv.URL))

	line := corpus.NewLine("ਧੰਨ ਧੰਨ ਰਾਮਦਾਸ ਗੁਰ")
	id, err := c.ResolveDocument(context.Background(), line)
	if err != nil {
		t.Fatalf("ResolveDocument: %v", err)
	}
	if id != "1404" {
		t.Errorf("id = %q, want 1404", id)
	}
}

func TestFetchDocument(t *testing.T) {
	srv, _ := newServer(t)
	c := banidb.New(banidb.WithBaseURL(srv.URL))

	doc, err := c.FetchDocument(context.Background(), "1404")
	if err != nil {
		t.Fatalf("FetchDocument: %v", err)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(doc.Lines))
	}
	if doc.Nav.Previous != "1403" || doc.Nav.Next != "1405" {
		t.Errorf("nav = %+v, want previous 1403 next 1405", doc.Nav)
	}
	if doc.Meta.Ang != 968 {
		t.Errorf("ang = %d, want 968", doc.Meta.Ang)
	}
	if doc.Lines[0].Normalized == "" || doc.Lines[0].FirstLetters == "" {
		t.Error("fetched lines must carry derived comparison forms")
	}
}

func TestFetchDocumentCached(t *testing.T) {
	srv, hits := newServer(t)
	c := banidb.New(banidb.WithBaseURL(srv.URL))

	for i := 0; i < 3; i++ {
		if _, err := c.FetchDocument(context.Background(), "1404"); err != nil {
			t.Fatalf("FetchDocument #%d: %v", i, err)
		}
	}
	if hits["shabad"] != 1 {
		t.Errorf("shabad endpoint hit %d times, want 1 (cached)", hits["shabad"])
	}
}

func TestResolveDocumentNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"verses": []}`))
	}))
	t.Cleanup(srv.Close)
	c := banidb.New(banidb.WithBaseURL(srv.URL))

	_, err := c.ResolveDocument(context.Background(), corpus.NewLine("ਧੰਨ ਧੰਨ"))
	if !errors.Is(err, banidb.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFetchDocumentEmptyID(t *testing.T) {
	c := banidb.New()
	if _, err := c.FetchDocument(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}
