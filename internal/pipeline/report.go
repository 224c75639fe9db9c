package pipeline

import "mail-unsubscriber/internal/models"

// Report summarizes one run
type Report struct {
	RunID           string
	MessagesFound   int
	MessagesScanned int
	MessagesSkipped int
	LinksExtracted  int
	// Links holds the distinct links in discovery order
	Links   []models.UnsubscribeLink
	Results []models.DispatchResult
	// NotDispatched counts distinct links left unvisited because the run was interrupted
	NotDispatched int
	DryRun        bool
}

// URLs returns the distinct URLs in discovery order
func (r *Report) URLs() []string {
	urls := make([]string, 0, len(r.Links))
	for _, l := range r.Links {
		urls = append(urls, l.URL)
	}
	return urls
}

// Failures counts dispatch attempts that did not succeed
func (r *Report) Failures() int {
	n := 0
	for _, res := range r.Results {
		if !res.Succeeded() {
			n++
		}
	}
	return n
}

// Dedup keeps the first occurrence of every URL, preserving order.
// URLs are compared exactly; no normalization is applied.
func Dedup(links []models.UnsubscribeLink) []models.UnsubscribeLink {
	seen := make(map[string]struct{}, len(links))
	distinct := make([]models.UnsubscribeLink, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l.URL]; ok {
			continue
		}
		seen[l.URL] = struct{}{}
		distinct = append(distinct, l)
	}
	return distinct
}
