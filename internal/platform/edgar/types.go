package edgar

import (
	"regexp"
	"strings"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// atomFeed is the EDGAR current-events feed envelope. The feed itself is
// well-formed Atom; only the filing documents need tolerant parsing.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title   string   `xml:"title"`
	ID      string   `xml:"id"`
	Updated string   `xml:"updated"`
	Link    atomLink `xml:"link"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

var (
	accessionRe = regexp.MustCompile(`accession-number=(\d{10}-\d{2}-\d{6})`)
	cikRe       = regexp.MustCompile(`CIK=(\d+)`)
)

// toFilingRef converts one feed entry into a domain filing reference. Entries
// without a recognizable accession number or CIK yield false.
func (e atomEntry) toFilingRef() (domain.FilingRef, bool) {
	m := accessionRe.FindStringSubmatch(e.ID)
	if m == nil {
		return domain.FilingRef{}, false
	}
	accession := m[1]

	c := cikRe.FindStringSubmatch(e.Link.Href)
	if c == nil {
		return domain.FilingRef{}, false
	}
	cik := strings.TrimLeft(c[1], "0")
	if cik == "" {
		cik = "0"
	}

	filedAt, err := time.Parse(time.RFC3339, e.Updated)
	if err != nil {
		filedAt = time.Now().UTC()
	}

	return domain.FilingRef{
		AccessionNo: accession,
		CIK:         cik,
		FiledAt:     filedAt,
	}, true
}
