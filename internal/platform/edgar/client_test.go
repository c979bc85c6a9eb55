package edgar

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="ISO-8859-1" ?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <title>4 - COOK TIMOTHY D (0001214156) (Reporting)</title>
    <id>urn:tag:sec.gov,2008:accession-number=0000320193-26-000012</id>
    <updated>2026-02-09T18:30:02-05:00</updated>
    <link rel="alternate" type="text/html" href="https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&amp;CIK=0000320193&amp;type=4"/>
  </entry>
  <entry>
    <title>4 - malformed entry without identifiers</title>
    <id>urn:tag:sec.gov,2008:no-accession-here</id>
    <updated>2026-02-09T18:31:00-05:00</updated>
    <link rel="alternate" type="text/html" href="https://www.sec.gov/"/>
  </entry>
</feed>`

// gzipAware serves payload compressed when and only when the incoming request
// advertises gzip, mirroring how sec.gov negotiates encoding.
func gzipAware(t *testing.T, payload, contentType string, sawGzip *bool) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			*sawGzip = true
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			_, err := gz.Write([]byte(payload))
			require.NoError(t, err)
			require.NoError(t, gz.Close())
			return
		}
		_, _ = w.Write([]byte(payload))
	}
}

func TestFetchRecentFilingsDecompressesGzip(t *testing.T) {
	var sawGzip bool
	var gotUserAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gzipAware(t, sampleFeed, "application/atom+xml", &sawGzip)(w, r)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, UserAgent: "insiderwatch admin@example.com"}, nil)

	refs, err := client.FetchRecentFilings(context.Background(), 10)
	require.NoError(t, err)

	assert.True(t, sawGzip, "the transport should negotiate gzip so the test covers the compressed path")
	assert.Equal(t, "insiderwatch admin@example.com", gotUserAgent)

	require.Len(t, refs, 1, "the entry without identifiers is skipped")
	assert.Equal(t, "0000320193-26-000012", refs[0].AccessionNo)
	assert.Equal(t, "320193", refs[0].CIK)
}

func TestFetchFilingDocumentDecompressesGzip(t *testing.T) {
	const doc = "<ownershipDocument><issuerCik>0000320193</issuerCik></ownershipDocument>"

	var sawGzip bool
	srv := httptest.NewServer(gzipAware(t, doc, "text/plain", &sawGzip))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, UserAgent: "insiderwatch admin@example.com"}, nil)

	body, err := client.FetchFilingDocument(context.Background(), domain.FilingRef{
		AccessionNo: "0000320193-26-000012",
		CIK:         "320193",
	})
	require.NoError(t, err)

	assert.True(t, sawGzip)
	assert.Equal(t, doc, body, "the body arrives decompressed, not as raw gzip bytes")
}

func TestFetchRecentFilingsRateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, UserAgent: "insiderwatch admin@example.com"}, nil)

	_, err := client.FetchRecentFilings(context.Background(), 10)
	require.ErrorIs(t, err, domain.ErrRateLimited)
}
