// Package feeds ingests raw text from external news feeds. One ingestion
// pass produces an ephemeral, lower-cased corpus for the scoring step; a
// failing feed is skipped, never fatal.
package feeds

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var feedLog = logrus.WithField("component", "feeds")

const defaultTimeout = 15 * time.Second

// Item is one structured feed entry. Every text field is optional; absent
// fields contribute nothing to the corpus.
type Item struct {
	Title   string
	Summary string
	Body    string
}

// Fetcher pulls a fixed list of RSS/Atom feeds.
type Fetcher struct {
	client *resty.Client
	urls   []string
}

// NewFetcher builds a fetcher for the given feed URLs. The timeout applies
// per feed request; zero means the default.
func NewFetcher(urls []string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", "buzzmarket/1.0 (+news scoring)")
	return &Fetcher{client: client, urls: urls}
}

// FetchCorpus fetches all feeds concurrently and returns the union of their
// text fragments, lower-cased. Per-feed failures (transport errors, bad
// status, malformed payloads) are logged and excluded; there is no retry
// within a pass. All feeds failing yields an empty corpus, which is valid
// input downstream.
func (f *Fetcher) FetchCorpus(ctx context.Context) []string {
	var (
		mu     sync.Mutex
		corpus []string
		wg     sync.WaitGroup
	)
	for _, u := range f.urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			frags, err := f.fetchFeed(ctx, url)
			if err != nil {
				feedLog.Warnf("feed %s skipped: %v", url, err)
				return
			}
			mu.Lock()
			corpus = append(corpus, frags...)
			mu.Unlock()
		}(u)
	}
	wg.Wait()
	return corpus
}

func (f *Fetcher) fetchFeed(ctx context.Context, url string) ([]string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, errors.Wrap(err, "fetch")
	}
	if resp.IsError() {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode())
	}
	items, err := parseFeed(resp.Body())
	if err != nil {
		return nil, err
	}

	var frags []string
	for _, it := range items {
		for _, s := range []string{it.Title, it.Summary, it.Body} {
			if s = strings.TrimSpace(s); s != "" {
				frags = append(frags, strings.ToLower(s))
			}
		}
	}
	return frags, nil
}
