package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

const (
	// DailyDigestSubject is the fixed subject line for daily digests.
	DailyDigestSubject = "Daily İlan Özeti"
	// WeeklyDigestSubject is the fixed subject line for weekly digests.
	WeeklyDigestSubject = "Weekly İlan Özeti"

	descriptionPreviewLen = 120
)

// ListingAlertData feeds the single-listing alert email.
type ListingAlertData struct {
	Title    string
	Price    string
	Location string
	URL      string
}

// DigestItem is one row in a digest email.
type DigestItem struct {
	Title       string
	Description string
	Price       string
	Location    string
	URL         string
}

// DigestData feeds the daily/weekly digest email.
type DigestData struct {
	Heading string
	Items   []DigestItem
}

var templateFuncs = template.FuncMap{
	"preview": func(s string) string {
		runes := []rune(s)
		if len(runes) <= descriptionPreviewLen {
			return s
		}
		return strings.TrimSpace(string(runes[:descriptionPreviewLen])) + "..."
	},
}

var listingAlertTmpl = template.Must(template.New("listing_alert").Parse(`<html>
<body style="font-family:Arial,sans-serif;color:#333">
  <h2>Aradığınız kriterlere uygun yeni bir ilan var!</h2>
  <h3>{{.Title}}</h3>
  <p><strong>Fiyat:</strong> {{.Price}} TL</p>
  <p><strong>Konum:</strong> {{.Location}}</p>
  <p><a href="{{.URL}}">İlanı Görüntüle</a></p>
</body>
</html>`))

var digestTmpl = template.Must(template.New("digest").Funcs(templateFuncs).Parse(`<html>
<body style="font-family:Arial,sans-serif;color:#333">
  <h2>{{.Heading}}</h2>
  {{range .Items}}
  <div style="border-bottom:1px solid #ddd;padding:12px 0">
    <h3>{{.Title}}</h3>
    <p>{{preview .Description}}</p>
    <p><strong>Fiyat:</strong> {{.Price}} TL &middot; <strong>Konum:</strong> {{.Location}}</p>
    <p><a href="{{.URL}}">İlanı Görüntüle</a></p>
  </div>
  {{end}}
</body>
</html>`))

// ListingAlertSubject builds the subject for a single-listing alert.
func ListingAlertSubject(title string) string {
	return fmt.Sprintf("Yeni İlan: %s", title)
}

// RenderListingAlert renders the HTML body for a single-listing alert.
func RenderListingAlert(data ListingAlertData) (string, error) {
	var sb strings.Builder
	if err := listingAlertTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering listing alert: %w", err)
	}
	return sb.String(), nil
}

// RenderDigest renders the HTML body for a digest email.
func RenderDigest(data DigestData) (string, error) {
	var sb strings.Builder
	if err := digestTmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return sb.String(), nil
}
