package disruption

import (
	"sort"
	"time"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"go.uber.org/zap"
)

// view selects how much of the merged disruption is materialised.
type view int

const (
	viewFull view = iota
	viewListing
)

// rowSet is every row of one disruption, bucketed by kind and slot.
type rowSet struct {
	info         [3]table.Item
	consequences [3]map[int]table.Item
	posts        [3]map[int]table.Item
	history      []keyedItem
}

type keyedItem struct {
	key  SortKey
	item table.Item
}

func newRowSet() *rowSet {
	rs := &rowSet{}
	for i := range rs.consequences {
		rs.consequences[i] = map[int]table.Item{}
		rs.posts[i] = map[int]table.Item{}
	}
	return rs
}

func (rs *rowSet) add(k SortKey, item table.Item) {
	switch k.Kind {
	case KindInfo:
		rs.info[k.Overlay] = item
	case KindConsequence:
		rs.consequences[k.Overlay][k.Index] = item
	case KindSocialMediaPost:
		rs.posts[k.Overlay][k.Index] = item
	case KindHistory:
		rs.history = append(rs.history, keyedItem{key: k, item: item})
	}
}

// nextHistorySlot returns the first free history timestamp, in
// milliseconds, at or after now.
func (rs *rowSet) nextHistorySlot(now time.Time) int64 {
	slot := now.UnixMilli()
	taken := make(map[int64]bool, len(rs.history))
	for _, h := range rs.history {
		taken[h.key.Timestamp] = true
	}
	for taken[slot] {
		slot++
	}
	return slot
}

func (rs *rowSet) has(o Overlay) bool {
	return rs.info[o] != nil || len(rs.consequences[o]) > 0 || len(rs.posts[o]) > 0
}

// groupRows buckets rows by disruption id, keeping the order in which ids
// first appear. Rows whose SK does not parse are skipped.
func groupRows(log *zap.Logger, items []table.Item) ([]string, map[string]*rowSet) {
	var order []string
	sets := map[string]*rowSet{}
	for _, item := range items {
		k, err := ParseSortKey(item.String(table.AttrSK))
		if err != nil {
			log.Warn("skipping unrecognised row", zap.String("sk", item.String(table.AttrSK)), zap.Error(err))
			continue
		}
		rs, ok := sets[k.DisruptionID]
		if !ok {
			rs = newRowSet()
			sets[k.DisruptionID] = rs
			order = append(order, k.DisruptionID)
		}
		rs.add(k, item)
	}
	return order, sets
}

// assemble merges the rows of one disruption into its logical view.
// It returns nil when there is no baseline INFO row or the merged
// result does not validate.
func assemble(log *zap.Logger, id string, rs *rowSet, isTemplate bool, v view) *models.Disruption {
	log = log.With(zap.String("disruption_id", id))
	if rs == nil || rs.info[OverlayBaseline] == nil {
		return nil
	}

	isPending := rs.has(OverlayPending)
	isEdited := rs.has(OverlayEdit)

	var baseline models.DisruptionInfo
	if err := table.Decode(rs.info[OverlayBaseline], &baseline); err != nil {
		log.Warn("undecodable disruption info", zap.Error(err))
		return nil
	}

	d := &models.Disruption{DisruptionInfo: baseline}
	for _, o := range []Overlay{OverlayPending, OverlayEdit} {
		if rs.info[o] == nil {
			continue
		}
		var info models.DisruptionInfo
		if err := table.Decode(rs.info[o], &info); err != nil {
			log.Warn("undecodable disruption info", zap.Stringer("overlay", o), zap.Error(err))
			return nil
		}
		d.DisruptionInfo = info
	}
	d.PublishStatus = DeriveStatus(baseline.PublishStatus, isPending, isEdited)
	d.CreationTime = baseline.CreationTime
	d.LastUpdated = firstNonEmpty(d.LastUpdated, baseline.LastUpdated)
	d.Template = isTemplate

	var newHistory []string
	if rs.info[OverlayEdit] != nil {
		newHistory = append(newHistory, "Disruption Info: Edited")
	}

	consequences, err := mergeSlots[models.Consequence](rs.consequences)
	if err != nil {
		log.Warn("undecodable consequence", zap.Error(err))
		return nil
	}
	for _, idx := range sortedKeys(rs.consequences[OverlayEdit]) {
		c := consequences[idx]
		newHistory = append(newHistory, "Disruption Consequence - "+c.ConsequenceType.Label()+": "+
			changeVerb(c.IsDeleted, existsBelow(rs.consequences, idx, OverlayEdit)))
	}
	for _, idx := range sortedKeys(consequences) {
		c := consequences[idx]
		if c.IsDeleted {
			d.DeletedConsequences = append(d.DeletedConsequences, c)
			continue
		}
		d.Consequences = append(d.Consequences, c)
	}

	posts, err := mergeSlots[models.SocialMediaPost](rs.posts)
	if err != nil {
		log.Warn("undecodable social media post", zap.Error(err))
		return nil
	}
	for _, idx := range sortedKeys(posts) {
		p := posts[idx]
		if p.IsDeleted {
			d.DeletedSocialMediaPosts = append(d.DeletedSocialMediaPosts, p)
			continue
		}
		d.SocialMediaPosts = append(d.SocialMediaPosts, p)
	}

	d.History = []models.History{}
	if !isTemplate {
		sort.SliceStable(rs.history, func(i, j int) bool {
			return rs.history[i].key.Timestamp < rs.history[j].key.Timestamp
		})
		for _, h := range rs.history {
			var entry models.History
			if err := table.Decode(h.item, &entry); err != nil {
				log.Warn("undecodable history entry", zap.Error(err))
				continue
			}
			d.History = append(d.History, entry)
		}
	}
	if d.Consequences == nil {
		d.Consequences = []models.Consequence{}
	}
	if d.SocialMediaPosts == nil {
		d.SocialMediaPosts = []models.SocialMediaPost{}
	}

	if err := models.Validate(d); err != nil {
		log.Warn("dropping invalid disruption", zap.Error(err))
		return nil
	}

	switch v {
	case viewFull:
		d.NewHistory = newHistory
	case viewListing:
		d.DeletedConsequences = nil
		d.DeletedSocialMediaPosts = nil
	}
	return d
}

// mergeSlots overlays pending rows on baseline rows, then edit rows on the
// result, matching rows by index.
func mergeSlots[T any](slots [3]map[int]table.Item) (map[int]T, error) {
	out := map[int]T{}
	for _, o := range []Overlay{OverlayBaseline, OverlayPending, OverlayEdit} {
		for idx, item := range slots[o] {
			var v T
			if err := table.Decode(item, &v); err != nil {
				return nil, err
			}
			out[idx] = v
		}
	}
	return out, nil
}

// existsBelow reports whether index is present in a slot that o overrides.
func existsBelow(slots [3]map[int]table.Item, index int, o Overlay) bool {
	if _, ok := slots[OverlayBaseline][index]; ok {
		return true
	}
	if o == OverlayEdit {
		_, ok := slots[OverlayPending][index]
		return ok
	}
	return false
}

func changeVerb(deleted, existed bool) string {
	switch {
	case deleted:
		return "Deleted"
	case existed:
		return "Edited"
	}
	return "Added"
}

func sortedKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
