package disruption

import (
	"context"
	"fmt"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"go.uber.org/zap"
)

// UpsertInfo writes the INFO row of a disruption into the slot chosen from
// its current status. A disruption that does not exist yet is written as a
// draft baseline.
func (s *Store) UpsertInfo(ctx context.Context, sc Scope, info models.DisruptionInfo) error {
	id := info.DisruptionID
	rs, current, err := s.loadMerged(ctx, sc, id)
	if err != nil {
		return err
	}

	o := OverlayBaseline
	if current != nil {
		o = targetOverlay(current.PublishStatus, sc.Staff, sc.Template)
	}

	info.OrgID = sc.OrgID
	info.Template = sc.Template
	info.LastUpdated = s.timestamp()
	if o == OverlayBaseline {
		if base := rs.info[OverlayBaseline]; base != nil {
			info.PublishStatus = models.PublishStatus(base.String("publishStatus"))
			info.CreationTime = base.String("creationTime")
		}
		if info.PublishStatus == "" {
			info.PublishStatus = models.PublishStatusDraft
		}
	}

	item, err := table.Encode(info, s.key(sc, InfoKey(id, o)))
	if err != nil {
		return err
	}
	if err := s.tableFor(sc).Put(ctx, item); err != nil {
		return fmt.Errorf("write info %s: %w", id, err)
	}
	s.log.Debug("info written", zap.String("disruption_id", id), zap.Stringer("overlay", o))
	return nil
}

// UpsertConsequence writes one consequence. Adding a new index to a
// disruption that already carries the maximum returns a
// TooManyConsequencesError and writes nothing.
func (s *Store) UpsertConsequence(ctx context.Context, sc Scope, c models.Consequence) error {
	id := c.DisruptionID
	_, current, err := s.loadMerged(ctx, sc, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	if current.ConsequenceByIndex(c.ConsequenceIndex) == nil && len(current.Consequences) >= models.MaxConsequences {
		return &TooManyConsequencesError{Limit: models.MaxConsequences}
	}

	o := targetOverlay(current.PublishStatus, sc.Staff, sc.Template)
	c.OrgID = sc.OrgID
	c.IsDeleted = false
	item, err := table.Encode(c, s.key(sc, ConsequenceKey(id, c.ConsequenceIndex, o)))
	if err != nil {
		return err
	}
	if err := s.tableFor(sc).Put(ctx, item); err != nil {
		return fmt.Errorf("write consequence %s/%d: %w", id, c.ConsequenceIndex, err)
	}
	return nil
}

// DeleteConsequence removes a consequence. Drafts lose the row; otherwise a
// deletion marker is written into the overlay slot so the removal goes
// through the same review as any other change.
func (s *Store) DeleteConsequence(ctx context.Context, sc Scope, id string, index int) error {
	rs, current, err := s.loadMerged(ctx, sc, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	c := current.ConsequenceByIndex(index)
	if c == nil {
		return fmt.Errorf("consequence %d: %w", index, ErrNotFound)
	}
	marker := *c
	marker.IsDeleted = true
	o := targetOverlay(current.PublishStatus, sc.Staff, sc.Template)
	return s.removeIndexed(ctx, sc, ConsequenceKey(id, index, o), rs.consequences, marker)
}

// UpsertSocialMediaPost merges the non-empty fields of post over the stored
// post with the same index and writes the result.
func (s *Store) UpsertSocialMediaPost(ctx context.Context, sc Scope, post models.SocialMediaPost) (*models.SocialMediaPost, error) {
	id := post.DisruptionID
	_, current, err := s.loadMerged(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNotFound
	}

	o := targetOverlay(current.PublishStatus, sc.Staff, sc.Template)
	key := s.key(sc, SocialMediaPostKey(id, post.SocialMediaPostIndex, o))

	merged := table.Item{}
	if existing := current.SocialMediaPostByIndex(post.SocialMediaPostIndex); existing != nil {
		if merged, err = table.Encode(existing, key); err != nil {
			return nil, err
		}
	} else if len(current.SocialMediaPosts) >= models.MaxSocialMediaPosts {
		return nil, ErrSocialMediaPostLimit
	}
	update, err := table.Encode(post, key)
	if err != nil {
		return nil, err
	}
	for name, v := range update {
		if !isEmptyAttr(v) {
			merged[name] = v
		}
	}
	merged["orgId"] = sc.OrgID
	delete(merged, "isDeleted")

	var result models.SocialMediaPost
	if err := table.Decode(merged, &result); err != nil {
		return nil, err
	}
	if err := models.Validate(result); err != nil {
		return nil, err
	}
	if err := s.tableFor(sc).Put(ctx, merged); err != nil {
		return nil, fmt.Errorf("write social media post %s/%d: %w", id, post.SocialMediaPostIndex, err)
	}
	return &result, nil
}

// DeleteSocialMediaPost removes a post the same way DeleteConsequence does.
func (s *Store) DeleteSocialMediaPost(ctx context.Context, sc Scope, id string, index int) error {
	rs, current, err := s.loadMerged(ctx, sc, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrNotFound
	}
	p := current.SocialMediaPostByIndex(index)
	if p == nil {
		return fmt.Errorf("social media post %d: %w", index, ErrNotFound)
	}
	marker := *p
	marker.IsDeleted = true
	o := targetOverlay(current.PublishStatus, sc.Staff, sc.Template)
	return s.removeIndexed(ctx, sc, SocialMediaPostKey(id, index, o), rs.posts, marker)
}

// removeIndexed deletes the row at k when no other slot holds the same
// index, and otherwise writes marker there.
func (s *Store) removeIndexed(ctx context.Context, sc Scope, k SortKey, slots [3]map[int]table.Item, marker any) error {
	tbl := s.tableFor(sc)
	if k.Overlay == OverlayBaseline || !existsOutside(slots, k.Index, k.Overlay) {
		return tbl.Delete(ctx, s.key(sc, k))
	}
	item, err := table.Encode(marker, s.key(sc, k))
	if err != nil {
		return err
	}
	return tbl.Put(ctx, item)
}

func existsOutside(slots [3]map[int]table.Item, index int, o Overlay) bool {
	for slot, rows := range slots {
		if Overlay(slot) == o {
			continue
		}
		if _, ok := rows[index]; ok {
			return true
		}
	}
	return false
}

func isEmptyAttr(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// PutDisruption writes d as a complete baseline in one transaction. It is
// used for copies, which never have overlays or history.
func (s *Store) PutDisruption(ctx context.Context, sc Scope, d *models.Disruption) error {
	id := d.DisruptionID
	info := d.DisruptionInfo
	info.OrgID = sc.OrgID
	info.Template = sc.Template
	info.LastUpdated = s.timestamp()

	ops := make([]table.WriteOp, 0, 1+len(d.Consequences)+len(d.SocialMediaPosts))
	item, err := table.Encode(info, s.key(sc, InfoKey(id, OverlayBaseline)))
	if err != nil {
		return err
	}
	ops = append(ops, table.PutOp(item))
	for _, c := range d.Consequences {
		c.DisruptionID = id
		c.OrgID = sc.OrgID
		item, err := table.Encode(c, s.key(sc, ConsequenceKey(id, c.ConsequenceIndex, OverlayBaseline)))
		if err != nil {
			return err
		}
		ops = append(ops, table.PutOp(item))
	}
	for _, p := range d.SocialMediaPosts {
		p.DisruptionID = id
		p.OrgID = sc.OrgID
		item, err := table.Encode(p, s.key(sc, SocialMediaPostKey(id, p.SocialMediaPostIndex, OverlayBaseline)))
		if err != nil {
			return err
		}
		ops = append(ops, table.PutOp(item))
	}
	if err := s.tableFor(sc).TransactWrite(ctx, ops); err != nil {
		return fmt.Errorf("write disruption %s: %w", id, err)
	}
	return nil
}
