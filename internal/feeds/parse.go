package feeds

import (
	"encoding/xml"

	"github.com/pkg/errors"
)

// RSS 2.0 document shape. Only the text-bearing fields matter here.
type rssDoc struct {
	XMLName xml.Name   `xml:"rss"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Description string `xml:"description"`
	// content:encoded carries the full body on feeds that provide one.
	Content string `xml:"encoded"`
}

// Atom document shape (reddit and many blogs publish Atom, not RSS).
type atomDoc struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
	Content string `xml:"content"`
}

// parseFeed decodes an RSS 2.0 or Atom payload into items. A payload that
// parses but contains no items is treated as malformed: the feed then
// contributes nothing and gets logged upstream.
func parseFeed(data []byte) ([]Item, error) {
	var rss rssDoc
	if err := xml.Unmarshal(data, &rss); err == nil && len(rss.Channel.Items) > 0 {
		items := make([]Item, 0, len(rss.Channel.Items))
		for _, it := range rss.Channel.Items {
			items = append(items, Item{Title: it.Title, Summary: it.Description, Body: it.Content})
		}
		return items, nil
	}

	var atom atomDoc
	if err := xml.Unmarshal(data, &atom); err == nil && len(atom.Entries) > 0 {
		items := make([]Item, 0, len(atom.Entries))
		for _, e := range atom.Entries {
			items = append(items, Item{Title: e.Title, Summary: e.Summary, Body: e.Content})
		}
		return items, nil
	}

	return nil, errors.New("payload is neither RSS nor Atom, or has no items")
}
