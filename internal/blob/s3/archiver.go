package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// archivePartSize is the multipart upload part size for archive batches.
const archivePartSize int64 = 8 * 1024 * 1024

// TransactionArchiveStore provides read access to transactions for archival
// purposes. The Postgres transaction store satisfies it implicitly.
type TransactionArchiveStore interface {
	// ListBefore returns all transactions dated strictly before the cutoff.
	ListBefore(ctx context.Context, before time.Time) ([]domain.Transaction, error)
}

// ArchiveImpl implements domain.Archiver by querying aged transactions,
// serializing them to JSONL, and uploading the result to S3.
//
// Deletion of the archived rows from the primary store is intentionally NOT
// performed here; the pipeline's retention job deletes only after the archive
// upload has succeeded.
type ArchiveImpl struct {
	writer domain.BlobWriter
	txs    TransactionArchiveStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, txs TransactionArchiveStore) *ArchiveImpl {
	return &ArchiveImpl{writer: writer, txs: txs}
}

// ArchiveTransactions queries all transactions dated before the cutoff,
// serializes them to JSONL, and uploads the file to S3 at
// archive/transactions/YYYY-MM.jsonl. It returns the count of archived rows.
func (a *ArchiveImpl) ArchiveTransactions(ctx context.Context, before time.Time) (int64, error) {
	txs, err := a.txs.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive transactions query: %w", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(txs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive transactions marshal: %w", err)
	}

	// Archive batches can span months of rows, so upload through the
	// multipart path rather than a single PutObject.
	path := archivePath("transactions", before)
	if err := a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), archivePartSize); err != nil {
		return 0, fmt.Errorf("s3blob: archive transactions upload: %w", err)
	}

	return int64(len(txs)), nil
}

// FilingPath returns the object key for one raw filing document, partitioned
// by filing date.
func FilingPath(ref domain.FilingRef) string {
	return fmt.Sprintf("filings/%s/%s.xml", ref.FiledAt.Format("2006/01/02"), ref.AccessionNo)
}

// archivePath builds the object key for an archive batch, bucketed by the
// cutoff month.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serializes a slice of records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*ArchiveImpl)(nil)
