package pipeline

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/alanyoungcy/insiderwatch/internal/domain"
)

// In-memory store fakes backing the pipeline tests. They implement the same
// key semantics as the postgres stores: upserts keyed on natural keys, alert
// uniqueness on (transaction_id, type).

type fakeCompanyStore struct {
	byCIK  map[string]domain.Company
	nextID int64
}

func newFakeCompanyStore() *fakeCompanyStore {
	return &fakeCompanyStore{byCIK: make(map[string]domain.Company), nextID: 1}
}

func (s *fakeCompanyStore) Upsert(_ context.Context, c domain.Company) (domain.Company, error) {
	if existing, ok := s.byCIK[c.CIK]; ok {
		existing.Name = c.Name
		existing.Symbol = c.Symbol
		s.byCIK[c.CIK] = existing
		return existing, nil
	}
	c.ID = s.nextID
	s.nextID++
	s.byCIK[c.CIK] = c
	return c, nil
}

func (s *fakeCompanyStore) GetByCIK(_ context.Context, cik string) (domain.Company, error) {
	if c, ok := s.byCIK[cik]; ok {
		return c, nil
	}
	return domain.Company{}, domain.ErrNotFound
}

func (s *fakeCompanyStore) Count(context.Context) (int64, error) {
	return int64(len(s.byCIK)), nil
}

type insiderKey struct {
	companyID int64
	name      string
}

type fakeInsiderStore struct {
	byKey  map[insiderKey]domain.Insider
	nextID int64
}

func newFakeInsiderStore() *fakeInsiderStore {
	return &fakeInsiderStore{byKey: make(map[insiderKey]domain.Insider), nextID: 1}
}

func (s *fakeInsiderStore) Upsert(_ context.Context, in domain.Insider) (domain.Insider, error) {
	key := insiderKey{companyID: in.CompanyID, name: in.Name}
	if existing, ok := s.byKey[key]; ok {
		existing.Title = in.Title
		existing.IsDirector = in.IsDirector
		existing.IsOfficer = in.IsOfficer
		existing.IsTenPercentOwner = in.IsTenPercentOwner
		existing.IsOther = in.IsOther
		s.byKey[key] = existing
		return existing, nil
	}
	in.ID = s.nextID
	s.nextID++
	s.byKey[key] = in
	return in, nil
}

type txKey struct {
	accessionNo string
	insiderID   int64
	date        time.Time
	shares      float64
	price       float64
}

type fakeTransactionStore struct {
	rows   map[txKey]domain.Transaction
	nextID int64

	upsertErr error
}

func newFakeTransactionStore() *fakeTransactionStore {
	return &fakeTransactionStore{rows: make(map[txKey]domain.Transaction), nextID: 1}
}

func (s *fakeTransactionStore) key(tx domain.Transaction) txKey {
	return txKey{
		accessionNo: tx.AccessionNo,
		insiderID:   tx.InsiderID,
		date:        tx.Date,
		shares:      tx.Shares,
		price:       tx.Price,
	}
}

func (s *fakeTransactionStore) Upsert(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	if s.upsertErr != nil {
		return domain.Transaction{}, s.upsertErr
	}
	key := s.key(tx)
	if existing, ok := s.rows[key]; ok {
		tx.ID = existing.ID
		s.rows[key] = tx
		return tx, nil
	}
	tx.ID = s.nextID
	s.nextID++
	s.rows[key] = tx
	return tx, nil
}

func (s *fakeTransactionStore) LastTransactionDate(_ context.Context, insiderID int64, onOrBefore time.Time) (*time.Time, error) {
	var last *time.Time
	for _, tx := range s.rows {
		if tx.InsiderID != insiderID || tx.Date.After(onOrBefore) {
			continue
		}
		if last == nil || tx.Date.After(*last) {
			d := tx.Date
			last = &d
		}
	}
	return last, nil
}

func (s *fakeTransactionStore) CountOtherInsidersInWindow(_ context.Context, companyID int64, start, end time.Time, excludeInsiderID int64) (int, error) {
	seen := make(map[int64]bool)
	for _, tx := range s.rows {
		if tx.CompanyID != companyID || tx.InsiderID == excludeInsiderID {
			continue
		}
		if tx.Date.Before(start) || tx.Date.After(end) {
			continue
		}
		seen[tx.InsiderID] = true
	}
	return len(seen), nil
}

func (s *fakeTransactionStore) PreviousTransaction(_ context.Context, insiderID int64, before time.Time) (*domain.Transaction, error) {
	var prev *domain.Transaction
	for _, tx := range s.rows {
		if tx.InsiderID != insiderID || !tx.Date.Before(before) {
			continue
		}
		if prev == nil || tx.Date.After(prev.Date) {
			t := tx
			prev = &t
		}
	}
	return prev, nil
}

func (s *fakeTransactionStore) ListForDate(_ context.Context, date time.Time) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range s.rows {
		if tx.Date.Equal(date) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AbsScore() > out[j].AbsScore() })
	return out, nil
}

func (s *fakeTransactionStore) ListRecent(_ context.Context, opts domain.ListOpts) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range s.rows {
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *fakeTransactionStore) ListBefore(_ context.Context, before time.Time) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range s.rows {
		if tx.Date.Before(before) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *fakeTransactionStore) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for key, tx := range s.rows {
		if tx.Date.Before(before) {
			delete(s.rows, key)
			n++
		}
	}
	return n, nil
}

type alertKey struct {
	transactionID int64
	typ           domain.AlertType
}

type fakeAlertStore struct {
	rows map[alertKey]domain.Alert

	recordErr error
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{rows: make(map[alertKey]domain.Alert)}
}

func (s *fakeAlertStore) Has(_ context.Context, transactionID int64, typ domain.AlertType) (bool, error) {
	_, ok := s.rows[alertKey{transactionID: transactionID, typ: typ}]
	return ok, nil
}

func (s *fakeAlertStore) Record(_ context.Context, a domain.Alert) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	key := alertKey{transactionID: a.TransactionID, typ: a.Type}
	if _, ok := s.rows[key]; ok {
		return nil
	}
	s.rows[key] = a
	return nil
}

func (s *fakeAlertStore) ListRecent(_ context.Context, limit int) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, a := range s.rows {
		out = append(out, a)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRunStore struct {
	inserted []domain.RunStats
}

func (s *fakeRunStore) Insert(_ context.Context, stats domain.RunStats) error {
	s.inserted = append(s.inserted, stats)
	return nil
}

func (s *fakeRunStore) ListRecent(_ context.Context, limit int) ([]domain.RunStats, error) {
	out := s.inserted
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeFilingSource serves documents from a map keyed by accession number.
type fakeFilingSource struct {
	refs    []domain.FilingRef
	docs    map[string]string
	listErr error
	docErrs map[string]error
}

func (s *fakeFilingSource) FetchRecentFilings(_ context.Context, maxCount int) ([]domain.FilingRef, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	refs := s.refs
	if maxCount > 0 && len(refs) > maxCount {
		refs = refs[:maxCount]
	}
	return refs, nil
}

func (s *fakeFilingSource) FetchFilingDocument(_ context.Context, ref domain.FilingRef) (string, error) {
	if err, ok := s.docErrs[ref.AccessionNo]; ok {
		return "", err
	}
	doc, ok := s.docs[ref.AccessionNo]
	if !ok {
		return "", errors.New("document not found")
	}
	return doc, nil
}

type sentMessage struct {
	event string
	title string
	body  string
}

// fakeNotifier records every delivered message and can be told to fail or to
// suppress events like a notifier with a restrictive event filter.
type fakeNotifier struct {
	sent     []sentMessage
	err      error
	filtered bool
}

func (n *fakeNotifier) Notify(_ context.Context, event, title, message string) (string, bool, error) {
	if n.err != nil {
		return "", false, n.err
	}
	if n.filtered {
		return "", false, nil
	}
	n.sent = append(n.sent, sentMessage{event: event, title: title, body: message})
	return "msg-1", true, nil
}
