package db

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/welearn/scholarquery/internal/models"
)

// descriptionPolicy keeps the markup the detail page is allowed to render.
var descriptionPolicy = bluemonday.UGCPolicy()

// HTMLToText strips markup, leaving normalized plain text.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// SanitizeScholarship cleans a record before it is written: titles and short
// fields become plain text, the description keeps safe markup only. Imported
// data is scraped from arbitrary pages and cannot be trusted as-is.
func SanitizeScholarship(s models.Scholarship) models.Scholarship {
	s.Title = HTMLToText(s.Title)
	s.HostCountry = strings.TrimSpace(HTMLToText(s.HostCountry))
	s.Country = strings.TrimSpace(HTMLToText(s.Country))
	s.DegreeOffered = strings.TrimSpace(HTMLToText(s.DegreeOffered))
	s.HostUniversity = strings.TrimSpace(HTMLToText(s.HostUniversity))
	s.ProgramDuration = strings.TrimSpace(HTMLToText(s.ProgramDuration))
	s.Deadline = strings.TrimSpace(s.Deadline)
	s.Description = descriptionPolicy.Sanitize(s.Description)
	return s
}
