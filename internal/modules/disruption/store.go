package disruption

import (
	"context"
	"fmt"
	"time"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"go.uber.org/zap"
)

// Scope identifies the partition a call works on and who is acting.
type Scope struct {
	OrgID    string
	Template bool
	Staff    bool
}

// Store reads and writes disruption rows in the live and template tables.
type Store struct {
	live      table.Table
	templates table.Table
	log       *zap.Logger
	pageSize  int
	now       func() time.Time
}

type StoreOption func(*Store)

// WithPageSize sets how many rows a listing page reads.
func WithPageSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

func NewStore(live, templates table.Table, log *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		live:      live,
		templates: templates,
		log:       log.Named("disruption.store"),
		pageSize:  table.DefaultPageSize,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) tableFor(sc Scope) table.Table {
	if sc.Template {
		return s.templates
	}
	return s.live
}

func (s *Store) load(ctx context.Context, sc Scope, id string) (*rowSet, error) {
	items, err := s.tableFor(sc).Query(ctx, sc.OrgID, Prefix(id))
	if err != nil {
		return nil, fmt.Errorf("load disruption %s: %w", id, err)
	}
	_, sets := groupRows(s.log, items)
	if rs, ok := sets[id]; ok {
		return rs, nil
	}
	return newRowSet(), nil
}

// loadMerged returns the rows and the merged view of one disruption. The
// view is nil when the disruption does not exist or does not validate.
func (s *Store) loadMerged(ctx context.Context, sc Scope, id string) (*rowSet, *models.Disruption, error) {
	rs, err := s.load(ctx, sc, id)
	if err != nil {
		return nil, nil, err
	}
	return rs, assemble(s.log, id, rs, sc.Template, viewFull), nil
}

// Get returns the merged disruption, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, sc Scope, id string) (*models.Disruption, error) {
	_, d, err := s.loadMerged(ctx, sc, id)
	return d, err
}

// baselineInfo returns the raw baseline INFO row, or nil. It answers even
// for disruptions that no longer assemble.
func (s *Store) baselineInfo(ctx context.Context, sc Scope, id string) (table.Item, error) {
	item, err := s.tableFor(sc).Get(ctx, s.key(sc, InfoKey(id, OverlayBaseline)))
	if err != nil {
		return nil, fmt.Errorf("get info %s: %w", id, err)
	}
	return item, nil
}

// StoredStatus returns the status persisted on the baseline INFO row, or ""
// when there is none.
func (s *Store) StoredStatus(ctx context.Context, sc Scope, id string) (models.PublishStatus, error) {
	item, err := s.baselineInfo(ctx, sc, id)
	if err != nil || item == nil {
		return "", err
	}
	return models.PublishStatus(item.String("publishStatus")), nil
}

// ListPage returns one page of disruptions in the partition. A disruption
// whose rows straddle the page boundary is completed before assembly, so
// every returned disruption is whole. limit counts rows, not disruptions;
// 0 uses the store's page size.
func (s *Store) ListPage(ctx context.Context, sc Scope, token string, limit int) ([]models.Disruption, string, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	tbl := s.tableFor(sc)
	page, err := tbl.QueryPage(ctx, sc.OrgID, "", limit, token)
	if err != nil {
		return nil, "", fmt.Errorf("list disruptions: %w", err)
	}

	items := page.Items
	next := page.NextToken
	if next != "" && len(items) > 0 {
		lastID := disruptionIDOf(items[len(items)-1])
		if lastID != "" {
			rest, err := tbl.Query(ctx, sc.OrgID, Prefix(lastID))
			if err != nil {
				return nil, "", fmt.Errorf("complete disruption %s: %w", lastID, err)
			}
			items = append(dropDisruption(items, lastID), rest...)
			if len(rest) > 0 {
				next = table.EncodeToken(rest[len(rest)-1].Key())
			}
		}
	}

	order, sets := groupRows(s.log, items)
	out := make([]models.Disruption, 0, len(order))
	for _, id := range order {
		if d := assemble(s.log, id, sets[id], sc.Template, viewListing); d != nil {
			out = append(out, *d)
		}
	}
	return out, next, nil
}

// List walks every page of the partition.
func (s *Store) List(ctx context.Context, sc Scope) ([]models.Disruption, error) {
	var (
		all   []models.Disruption
		token string
	)
	for {
		page, next, err := s.ListPage(ctx, sc, token, 0)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

func disruptionIDOf(item table.Item) string {
	k, err := ParseSortKey(item.String(table.AttrSK))
	if err != nil {
		return ""
	}
	return k.DisruptionID
}

func dropDisruption(items []table.Item, id string) []table.Item {
	out := items[:0:0]
	for _, item := range items {
		if disruptionIDOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func (s *Store) key(sc Scope, k SortKey) table.Key {
	return table.Key{PK: sc.OrgID, SK: k.String()}
}
