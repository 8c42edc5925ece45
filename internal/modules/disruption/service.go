package disruption

import (
	"context"
	"fmt"
	"strings"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	historyCreatedAndPublished  = "Disruption created and published"
	historySubmittedForReview   = "Disruption submitted for review"
	historyApprovedAndPublished = "Disruption approved and published"
)

// Service applies the workflow rules on top of Store for an authenticated
// session.
type Service struct {
	store *Store
	log   *zap.Logger
	newID func() string
}

func NewService(store *Store, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   log.Named("disruption"),
		newID: uuid.NewString,
	}
}

func scopeOf(sess *models.Session, isTemplate bool) Scope {
	return Scope{OrgID: sess.OrgID, Template: isTemplate, Staff: sess.CanPublish()}
}

// visible hides disruptions created by other operators from operator users.
func visible(sess *models.Session, d *models.Disruption) bool {
	return visibleTo(sess, d.CreatedByOperatorOrgID)
}

func visibleTo(sess *models.Session, createdByOperatorOrgID string) bool {
	return !sess.IsOperatorUser || createdByOperatorOrgID == sess.OperatorOrgID
}

func newDisplayID(id string) string {
	compact := strings.ReplaceAll(id, "-", "")
	return compact[len(compact)-6:]
}

func (s *Service) Get(ctx context.Context, sess *models.Session, id string, isTemplate bool) (*models.Disruption, error) {
	d, err := s.store.Get(ctx, scopeOf(sess, isTemplate), id)
	if err != nil {
		return nil, err
	}
	if d == nil || !visible(sess, d) {
		return nil, ErrNotFound
	}
	return d, nil
}

// ListPage returns one page of the organisation's disruptions.
func (s *Service) ListPage(ctx context.Context, sess *models.Session, isTemplate bool, token string, limit int) ([]models.Disruption, string, error) {
	items, next, err := s.store.ListPage(ctx, scopeOf(sess, isTemplate), token, limit)
	if err != nil {
		return nil, "", err
	}
	out := items[:0]
	for i := range items {
		if visible(sess, &items[i]) {
			out = append(out, items[i])
		}
	}
	return out, next, nil
}

// Create stores a new draft and returns it.
func (s *Service) Create(ctx context.Context, sess *models.Session, info models.DisruptionInfo, isTemplate bool) (*models.Disruption, error) {
	info.DisruptionID = s.newID()
	info.DisplayID = newDisplayID(info.DisruptionID)
	info.OrgID = sess.OrgID
	info.PublishStatus = models.PublishStatusDraft
	info.CreationTime = ""
	info.CreatedByOperatorOrgID = ""
	if sess.IsOperatorUser {
		info.CreatedByOperatorOrgID = sess.OperatorOrgID
	}
	if err := models.Validate(info); err != nil {
		return nil, err
	}
	if err := s.store.UpsertInfo(ctx, scopeOf(sess, isTemplate), info); err != nil {
		return nil, err
	}
	s.log.Info("disruption created", zap.String("disruption_id", info.DisruptionID), zap.Bool("template", isTemplate))
	return s.Get(ctx, sess, info.DisruptionID, isTemplate)
}

// UpdateInfo replaces the scalar fields of an existing disruption.
func (s *Service) UpdateInfo(ctx context.Context, sess *models.Session, id string, info models.DisruptionInfo, isTemplate bool) (*models.Disruption, error) {
	current, err := s.Get(ctx, sess, id, isTemplate)
	if err != nil {
		return nil, err
	}
	info.DisruptionID = id
	info.OrgID = sess.OrgID
	info.DisplayID = current.DisplayID
	info.CreatedByOperatorOrgID = current.CreatedByOperatorOrgID
	info.PublishStatus = ""
	if err := models.Validate(info); err != nil {
		return nil, err
	}
	if err := s.store.UpsertInfo(ctx, scopeOf(sess, isTemplate), info); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

func (s *Service) UpsertConsequence(ctx context.Context, sess *models.Session, id string, c models.Consequence, isTemplate bool) (*models.Disruption, error) {
	if _, err := s.Get(ctx, sess, id, isTemplate); err != nil {
		return nil, err
	}
	c.DisruptionID = id
	c.OrgID = sess.OrgID
	if err := models.Validate(c); err != nil {
		return nil, err
	}
	if err := s.store.UpsertConsequence(ctx, scopeOf(sess, isTemplate), c); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

func (s *Service) DeleteConsequence(ctx context.Context, sess *models.Session, id string, index int, isTemplate bool) (*models.Disruption, error) {
	if _, err := s.Get(ctx, sess, id, isTemplate); err != nil {
		return nil, err
	}
	if err := s.store.DeleteConsequence(ctx, scopeOf(sess, isTemplate), id, index); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

func (s *Service) UpsertSocialMediaPost(ctx context.Context, sess *models.Session, id string, post models.SocialMediaPost, isTemplate bool) (*models.Disruption, error) {
	if _, err := s.Get(ctx, sess, id, isTemplate); err != nil {
		return nil, err
	}
	post.DisruptionID = id
	if _, err := s.store.UpsertSocialMediaPost(ctx, scopeOf(sess, isTemplate), post); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

func (s *Service) DeleteSocialMediaPost(ctx context.Context, sess *models.Session, id string, index int, isTemplate bool) (*models.Disruption, error) {
	if _, err := s.Get(ctx, sess, id, isTemplate); err != nil {
		return nil, err
	}
	if err := s.store.DeleteSocialMediaPost(ctx, scopeOf(sess, isTemplate), id, index); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

// Publish takes a draft or rejected disruption live. Staff publish directly;
// everyone else submits it for review. Templates are simply marked published.
func (s *Service) Publish(ctx context.Context, sess *models.Session, id string, isTemplate bool) (*models.Disruption, error) {
	d, err := s.Get(ctx, sess, id, isTemplate)
	if err != nil {
		return nil, err
	}
	sc := scopeOf(sess, isTemplate)
	stored, err := s.store.StoredStatus(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if stored != models.PublishStatusDraft && stored != models.PublishStatusRejected {
		return nil, fmt.Errorf("%w: cannot publish a disruption in status %s", ErrInvalidState, d.PublishStatus)
	}
	if len(d.Consequences) == 0 {
		return nil, fmt.Errorf("%w: a disruption needs at least one consequence", ErrInvalidState)
	}

	if err := s.store.PublishEdited(ctx, sc, id); err != nil {
		return nil, err
	}
	change := StatusChange{Status: models.PublishStatusPublished, User: sess.DisplayName()}
	switch {
	case isTemplate:
	case sess.CanPublish():
		change.HistoryItems = []string{historyCreatedAndPublished}
	default:
		change.Status = models.PublishStatusPendingApproval
		change.HistoryItems = []string{historySubmittedForReview}
	}
	if err := s.store.UpdateStatus(ctx, sc, id, change); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

// PublishEdit applies the open edits of a disruption. Staff and templates
// promote them onto the baseline, together with any pending changes.
// Other users submit them for review.
func (s *Service) PublishEdit(ctx context.Context, sess *models.Session, id string, isTemplate bool) (*models.Disruption, error) {
	d, err := s.Get(ctx, sess, id, isTemplate)
	if err != nil {
		return nil, err
	}
	switch d.PublishStatus {
	case models.PublishStatusEditing, models.PublishStatusEditPendingApproval, models.PublishStatusPendingAndEditing:
	default:
		return nil, fmt.Errorf("%w: no edits to publish in status %s", ErrInvalidState, d.PublishStatus)
	}
	sc := scopeOf(sess, isTemplate)

	if isTemplate || sess.CanPublish() {
		if d.PublishStatus == models.PublishStatusEditing {
			err = s.store.PublishEdited(ctx, sc, id)
		} else {
			err = s.store.PublishEditedIntoPending(ctx, sc, id)
			if err == nil {
				err = s.store.PublishPending(ctx, sc, id)
			}
		}
		if err != nil {
			return nil, err
		}
		if err := s.store.DiscardOverlays(ctx, sc, id, OverlayEdit, OverlayPending); err != nil {
			return nil, err
		}
		change := StatusChange{Status: models.PublishStatusPublished, User: sess.DisplayName(), HistoryItems: d.NewHistory}
		if err := s.store.UpdateStatus(ctx, sc, id, change); err != nil {
			return nil, err
		}
		return s.Get(ctx, sess, id, isTemplate)
	}

	stored, err := s.store.StoredStatus(ctx, sc, id)
	if err != nil {
		return nil, err
	}
	if hasBeenLive(stored) {
		if err := s.store.PublishEditedIntoPending(ctx, sc, id); err != nil {
			return nil, err
		}
		return s.Get(ctx, sess, id, isTemplate)
	}
	if err := s.store.PublishEdited(ctx, sc, id); err != nil {
		return nil, err
	}
	change := StatusChange{
		Status:       models.PublishStatusPendingApproval,
		User:         sess.DisplayName(),
		HistoryItems: []string{historySubmittedForReview},
	}
	if err := s.store.UpdateStatus(ctx, sc, id, change); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

// Approve publishes a disruption, or the changes to it, awaiting review.
func (s *Service) Approve(ctx context.Context, sess *models.Session, id string) (*models.Disruption, error) {
	if !sess.CanReview() {
		return nil, ErrForbidden
	}
	d, err := s.Get(ctx, sess, id, false)
	if err != nil {
		return nil, err
	}
	sc := scopeOf(sess, false)
	switch d.PublishStatus {
	case models.PublishStatusPendingApproval:
	case models.PublishStatusEditPendingApproval, models.PublishStatusPendingAndEditing:
		if err := s.store.PublishPending(ctx, sc, id); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: nothing to approve in status %s", ErrInvalidState, d.PublishStatus)
	}
	change := StatusChange{
		Status:       models.PublishStatusPublished,
		User:         sess.DisplayName(),
		HistoryItems: []string{historyApprovedAndPublished},
	}
	if err := s.store.UpdateStatus(ctx, sc, id, change); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, false)
}

// Reject drops the edit and pending rows of a disruption awaiting review.
// A disruption that was never published is marked rejected; a published one
// keeps its status.
func (s *Service) Reject(ctx context.Context, sess *models.Session, id string) (*models.Disruption, error) {
	if !sess.CanReview() {
		return nil, ErrForbidden
	}
	d, err := s.Get(ctx, sess, id, false)
	if err != nil {
		return nil, err
	}
	switch d.PublishStatus {
	case models.PublishStatusPendingApproval, models.PublishStatusEditPendingApproval, models.PublishStatusPendingAndEditing:
	default:
		return nil, fmt.Errorf("%w: nothing to reject in status %s", ErrInvalidState, d.PublishStatus)
	}
	sc := scopeOf(sess, false)
	if err := s.store.DiscardOverlays(ctx, sc, id, OverlayEdit, OverlayPending); err != nil {
		return nil, err
	}
	if d.PublishStatus != models.PublishStatusPendingAndEditing && d.PublishStatus != models.PublishStatusEditPendingApproval {
		if err := s.store.UpdateStatus(ctx, sc, id, StatusChange{Status: models.PublishStatusRejected}); err != nil {
			return nil, err
		}
	}
	s.log.Info("disruption rejected", zap.String("disruption_id", id), zap.String("by", sess.Username))
	return s.Get(ctx, sess, id, false)
}

// DiscardEdits drops the open #EDIT rows.
func (s *Service) DiscardEdits(ctx context.Context, sess *models.Session, id string, isTemplate bool) (*models.Disruption, error) {
	if _, err := s.Get(ctx, sess, id, isTemplate); err != nil {
		return nil, err
	}
	if err := s.store.DiscardOverlays(ctx, scopeOf(sess, isTemplate), id, OverlayEdit); err != nil {
		return nil, err
	}
	return s.Get(ctx, sess, id, isTemplate)
}

// Delete removes a disruption. It reads the raw INFO row rather than the
// merged view so that a disruption which no longer validates can still be
// removed.
func (s *Service) Delete(ctx context.Context, sess *models.Session, id string, isTemplate bool) error {
	sc := scopeOf(sess, isTemplate)
	info, err := s.store.baselineInfo(ctx, sc, id)
	if err != nil {
		return err
	}
	if info == nil || !visibleTo(sess, info.String("createdByOperatorOrgId")) {
		return ErrNotFound
	}
	if err := s.store.DeleteDisruption(ctx, sc, id); err != nil {
		return err
	}
	s.log.Info("disruption deleted", zap.String("disruption_id", id), zap.Bool("template", isTemplate))
	return nil
}

// Duplicate copies a live disruption into a new draft.
func (s *Service) Duplicate(ctx context.Context, sess *models.Session, id string) (*models.Disruption, error) {
	return s.copyInto(ctx, sess, id, false)
}

// CreateFromTemplate instantiates a template as a new live draft.
func (s *Service) CreateFromTemplate(ctx context.Context, sess *models.Session, templateID string) (*models.Disruption, error) {
	return s.copyInto(ctx, sess, templateID, true)
}

// copyInto creates a live draft from the source, re-indexing consequences
// and social media posts from 0. History is not copied.
func (s *Service) copyInto(ctx context.Context, sess *models.Session, sourceID string, fromTemplate bool) (*models.Disruption, error) {
	src, err := s.Get(ctx, sess, sourceID, fromTemplate)
	if err != nil {
		return nil, err
	}
	id := s.newID()
	d := &models.Disruption{DisruptionInfo: src.DisruptionInfo}
	d.DisruptionID = id
	d.DisplayID = newDisplayID(id)
	d.PublishStatus = models.PublishStatusDraft
	d.CreationTime = ""
	d.Template = false
	d.CreatedByOperatorOrgID = ""
	if sess.IsOperatorUser {
		d.CreatedByOperatorOrgID = sess.OperatorOrgID
	}
	d.Consequences = make([]models.Consequence, len(src.Consequences))
	for i, c := range src.Consequences {
		c.ConsequenceIndex = i
		d.Consequences[i] = c
	}
	d.SocialMediaPosts = make([]models.SocialMediaPost, len(src.SocialMediaPosts))
	for i, p := range src.SocialMediaPosts {
		p.SocialMediaPostIndex = i
		d.SocialMediaPosts[i] = p
	}

	if err := s.store.PutDisruption(ctx, scopeOf(sess, false), d); err != nil {
		return nil, err
	}
	s.log.Info("disruption copied",
		zap.String("source_id", sourceID),
		zap.String("disruption_id", id),
		zap.Bool("from_template", fromTemplate),
	)
	return s.Get(ctx, sess, id, false)
}
