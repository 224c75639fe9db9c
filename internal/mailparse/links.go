package mailparse

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const unsubscribeKeyword = "unsubscribe"

// ExtractUnsubscribeLinks returns, in document order, the href of every anchor whose
// lowercased value contains "unsubscribe". Malformed markup is parsed best-effort.
func ExtractUnsubscribeLinks(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if strings.Contains(strings.ToLower(href), unsubscribeKeyword) {
			links = append(links, href)
		}
	})
	return links
}
