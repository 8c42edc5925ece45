package disruption

import (
	"context"
	"fmt"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"go.uber.org/zap"
)

// PublishEdited moves every #EDIT row onto the baseline.
func (s *Store) PublishEdited(ctx context.Context, sc Scope, id string) error {
	return s.promote(ctx, sc, id, OverlayEdit, OverlayBaseline)
}

// PublishEditedIntoPending moves every #EDIT row into the #PENDING slot,
// submitting the edits for review.
func (s *Store) PublishEditedIntoPending(ctx context.Context, sc Scope, id string) error {
	return s.promote(ctx, sc, id, OverlayEdit, OverlayPending)
}

// PublishPending moves every #PENDING row onto the baseline.
func (s *Store) PublishPending(ctx context.Context, sc Scope, id string) error {
	return s.promote(ctx, sc, id, OverlayPending, OverlayBaseline)
}

// promote rewrites each row in slot from into slot to and deletes the
// source, in one transaction. Deletion markers landing on the baseline
// delete the baseline row instead.
func (s *Store) promote(ctx context.Context, sc Scope, id string, from, to Overlay) error {
	items, err := s.tableFor(sc).Query(ctx, sc.OrgID, Prefix(id))
	if err != nil {
		return fmt.Errorf("load disruption %s: %w", id, err)
	}
	targets := map[string]table.Item{}
	for _, item := range items {
		targets[item.String(table.AttrSK)] = item
	}

	var ops []table.WriteOp
	for _, item := range items {
		k, err := ParseSortKey(item.String(table.AttrSK))
		if err != nil || k.Kind == KindHistory || k.Overlay != from {
			continue
		}
		dest := s.key(sc, k.WithOverlay(to))
		switch {
		case to == OverlayBaseline && item.Bool("isDeleted"):
			ops = append(ops, table.DeleteOp(dest))
		default:
			moved := item.Clone()
			moved[table.AttrSK] = dest.SK
			if k.Kind == KindInfo && to == OverlayBaseline {
				carryBaselineFields(moved, targets[dest.SK])
			}
			ops = append(ops, table.PutOp(moved))
		}
		ops = append(ops, table.DeleteOp(s.key(sc, k)))
	}
	if len(ops) == 0 {
		return nil
	}
	if err := s.tableFor(sc).TransactWrite(ctx, ops); err != nil {
		return fmt.Errorf("promote %s rows of %s: %w", from, id, err)
	}
	s.log.Info("rows promoted",
		zap.String("disruption_id", id),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("ops", len(ops)),
	)
	return nil
}

// carryBaselineFields keeps the lifecycle fields of the baseline INFO row
// when an overlay copy replaces it.
func carryBaselineFields(moved, baseline table.Item) {
	if baseline == nil {
		return
	}
	for _, name := range []string{"publishStatus", "creationTime"} {
		if v := baseline.String(name); v != "" {
			moved[name] = v
		}
	}
}

// DeleteDisruption removes every row of the disruption apart from its
// history.
func (s *Store) DeleteDisruption(ctx context.Context, sc Scope, id string) error {
	return s.deleteRows(ctx, sc, id, func(k SortKey) bool { return k.Kind != KindHistory })
}

// DiscardOverlays deletes the rows held in the given slots.
func (s *Store) DiscardOverlays(ctx context.Context, sc Scope, id string, overlays ...Overlay) error {
	return s.deleteRows(ctx, sc, id, func(k SortKey) bool {
		if k.Kind == KindHistory {
			return false
		}
		for _, o := range overlays {
			if o != OverlayBaseline && k.Overlay == o {
				return true
			}
		}
		return false
	})
}

func (s *Store) deleteRows(ctx context.Context, sc Scope, id string, match func(SortKey) bool) error {
	items, err := s.tableFor(sc).Query(ctx, sc.OrgID, Prefix(id))
	if err != nil {
		return fmt.Errorf("load disruption %s: %w", id, err)
	}
	var ops []table.WriteOp
	for _, item := range items {
		k, err := ParseSortKey(item.String(table.AttrSK))
		if err != nil || !match(k) {
			continue
		}
		ops = append(ops, table.DeleteOp(item.Key()))
	}
	if len(ops) == 0 {
		return nil
	}
	if err := s.tableFor(sc).TransactWrite(ctx, ops); err != nil {
		return fmt.Errorf("delete rows of %s: %w", id, err)
	}
	return nil
}

// StatusChange describes an UpdateStatus call.
type StatusChange struct {
	Status models.PublishStatus
	// User and HistoryItems are recorded on a history row when HistoryItems
	// is not empty. Templates never get history.
	User         string
	HistoryItems []string
}

// UpdateStatus stamps the status and lastUpdated on the baseline INFO row
// and every baseline consequence and post. creationTime is set on each of
// them only when it is missing.
func (s *Store) UpdateStatus(ctx context.Context, sc Scope, id string, change StatusChange) error {
	rs, err := s.load(ctx, sc, id)
	if err != nil {
		return err
	}
	info := rs.info[OverlayBaseline]
	if info == nil {
		return ErrNotFound
	}

	now := s.now()
	stamp := now.UTC().Format(timestampLayout)
	ops := make([]table.WriteOp, 0, 2+len(rs.consequences[OverlayBaseline])+len(rs.posts[OverlayBaseline]))

	stamped := func(item table.Item) table.Item {
		row := item.Clone()
		row["publishStatus"] = string(change.Status)
		row["lastUpdated"] = stamp
		if row.String("creationTime") == "" {
			row["creationTime"] = stamp
		}
		return row
	}
	ops = append(ops, table.PutOp(stamped(info)))
	for _, rows := range []map[int]table.Item{rs.consequences[OverlayBaseline], rs.posts[OverlayBaseline]} {
		for _, idx := range sortedKeys(rows) {
			ops = append(ops, table.PutOp(stamped(rows[idx])))
		}
	}

	if !sc.Template && len(change.HistoryItems) > 0 {
		entry := models.History{
			HistoryItems: change.HistoryItems,
			Datetime:     stamp,
			User:         change.User,
			Status:       change.Status,
		}
		item, err := table.Encode(entry, s.key(sc, HistoryKey(id, rs.nextHistorySlot(now))))
		if err != nil {
			return err
		}
		ops = append(ops, table.PutOp(item))
	}

	if err := s.tableFor(sc).TransactWrite(ctx, ops); err != nil {
		return fmt.Errorf("update status of %s: %w", id, err)
	}
	s.log.Info("status updated", zap.String("disruption_id", id), zap.String("status", string(change.Status)))
	return nil
}
