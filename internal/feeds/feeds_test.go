package feeds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"
)

const rssPayload = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>AI Breakthrough Announced</title>
      <description>Researchers reveal a new Model</description>
      <content:encoded>Full story about ARTIFICIAL intelligence</content:encoded>
    </item>
    <item>
      <title>Markets rally</title>
    </item>
  </channel>
</rss>`

const atomPayload = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>worldnews</title>
  <entry>
    <title>Summit Ends</title>
    <summary>Leaders agree on Trade</summary>
  </entry>
</feed>`

func rssServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCorpusLowercasesFragments(t *testing.T) {
	srv := rssServer(t, rssPayload)

	f := NewFetcher([]string{srv.URL}, 5*time.Second)
	corpus := f.FetchCorpus(context.Background())

	want := []string{
		"ai breakthrough announced",
		"researchers reveal a new model",
		"full story about artificial intelligence",
		"markets rally",
	}
	if len(corpus) != len(want) {
		t.Fatalf("want %d fragments, got %d: %v", len(want), len(corpus), corpus)
	}
	sort.Strings(corpus)
	sort.Strings(want)
	for i := range want {
		if corpus[i] != want[i] {
			t.Fatalf("fragment %d: want %q, got %q", i, want[i], corpus[i])
		}
	}
}

func TestFetchCorpusParsesAtom(t *testing.T) {
	srv := rssServer(t, atomPayload)

	f := NewFetcher([]string{srv.URL}, 5*time.Second)
	corpus := f.FetchCorpus(context.Background())

	if len(corpus) != 2 {
		t.Fatalf("want 2 fragments, got %d: %v", len(corpus), corpus)
	}
}

func TestFetchCorpusSurvivesFailingFeeds(t *testing.T) {
	good := rssServer(t, rssPayload)
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)
	malformed := rssServer(t, "<rss><channel><item></rss")

	// One dead endpoint too.
	deadURL := "http://127.0.0.1:1/feed.xml"

	f := NewFetcher([]string{good.URL, bad.URL, malformed.URL, deadURL}, 2*time.Second)
	corpus := f.FetchCorpus(context.Background())

	if len(corpus) != 4 {
		t.Fatalf("only the good feed should contribute: want 4 fragments, got %d", len(corpus))
	}
}

func TestFetchCorpusAllFeedsFailing(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusBadGateway)
	}))
	t.Cleanup(bad.Close)

	f := NewFetcher([]string{bad.URL, "http://127.0.0.1:1/feed.xml"}, 2*time.Second)
	corpus := f.FetchCorpus(context.Background())

	if len(corpus) != 0 {
		t.Fatalf("want empty corpus, got %v", corpus)
	}
}

func TestParseFeedRejectsGarbage(t *testing.T) {
	if _, err := parseFeed([]byte(`{"not": "xml"}`)); err == nil {
		t.Fatal("want error for non-XML payload")
	}
	if _, err := parseFeed([]byte(`<rss><channel></channel></rss>`)); err == nil {
		t.Fatal("want error for feed with no items")
	}
}
