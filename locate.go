package tcgscrape

import "github.com/PuerkitoBio/goquery"

// Locate returns the nodes of the first selector group that matches
// anything in doc, groups are never merged. nil means the page is empty.
func Locate(doc *goquery.Selection, groups []string) *goquery.Selection {
	if doc == nil {
		return nil
	}

	for _, g := range groups {
		if nodes := doc.Find(g); nodes.Length() > 0 {
			return nodes
		}
	}

	return nil
}
