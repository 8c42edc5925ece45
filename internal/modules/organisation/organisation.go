// Package organisation stores the tenant record of an organisation together
// with its operator sub-organisations and linked social media accounts.
package organisation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/middleware"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/response"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	skInfo           = "INFO"
	skOperatorPrefix = "OPERATOR#"
	skSocialPrefix   = "SOCIAL#"
)

// Store reads and writes the organisations table.
type Store struct {
	tbl table.Table
	log *zap.Logger
	now func() time.Time
}

func NewStore(tbl table.Table, log *zap.Logger) *Store {
	return &Store{tbl: tbl, log: log.Named("organisation.store"), now: time.Now}
}

// GetOrganisation returns nil when the organisation is missing or its
// stored record is invalid.
func (s *Store) GetOrganisation(ctx context.Context, orgID string) (*models.Organisation, error) {
	item, err := s.tbl.Get(ctx, table.Key{PK: orgID, SK: skInfo})
	if err != nil {
		return nil, fmt.Errorf("get organisation %s: %w", orgID, err)
	}
	if item == nil {
		return nil, nil
	}
	var org models.Organisation
	if err := table.Decode(item, &org); err != nil {
		s.log.Warn("undecodable organisation", zap.String("org", orgID), zap.Error(err))
		return nil, nil
	}
	if org.ID == "" {
		org.ID = orgID
	}
	if err := models.Validate(org); err != nil {
		s.log.Warn("invalid organisation", zap.String("org", orgID), zap.Error(err))
		return nil, nil
	}
	return &org, nil
}

func (s *Store) PutOrganisation(ctx context.Context, org models.Organisation) error {
	item, err := table.Encode(org, table.Key{PK: org.ID, SK: skInfo})
	if err != nil {
		return err
	}
	return s.tbl.Put(ctx, item)
}

// ListOperators returns the valid operator records in sort key order.
func (s *Store) ListOperators(ctx context.Context, orgID string) ([]models.Operator, error) {
	return listRows[models.Operator](ctx, s, orgID, skOperatorPrefix)
}

// UpsertOperator assigns an id to new operators and stores the record.
func (s *Store) UpsertOperator(ctx context.Context, orgID string, op models.Operator) (*models.Operator, error) {
	if op.OperatorOrgID == "" {
		op.OperatorOrgID = uuid.NewString()
	}
	if op.CreatedAt == "" {
		op.CreatedAt = s.now().UTC().Format(time.RFC3339)
	}
	if err := models.Validate(op); err != nil {
		return nil, err
	}
	item, err := table.Encode(op, table.Key{PK: orgID, SK: skOperatorPrefix + op.OperatorOrgID})
	if err != nil {
		return nil, err
	}
	if err := s.tbl.Put(ctx, item); err != nil {
		return nil, fmt.Errorf("put operator %s: %w", op.OperatorOrgID, err)
	}
	return &op, nil
}

func (s *Store) DeleteOperator(ctx context.Context, orgID, operatorOrgID string) error {
	return s.tbl.Delete(ctx, table.Key{PK: orgID, SK: skOperatorPrefix + operatorOrgID})
}

func (s *Store) ListSocialAccounts(ctx context.Context, orgID string) ([]models.SocialAccount, error) {
	return listRows[models.SocialAccount](ctx, s, orgID, skSocialPrefix)
}

func (s *Store) UpsertSocialAccount(ctx context.Context, orgID string, acc models.SocialAccount) error {
	if err := models.Validate(acc); err != nil {
		return err
	}
	item, err := table.Encode(acc, table.Key{PK: orgID, SK: skSocialPrefix + acc.ID})
	if err != nil {
		return err
	}
	if err := s.tbl.Put(ctx, item); err != nil {
		return fmt.Errorf("put social account %s: %w", acc.ID, err)
	}
	return nil
}

func (s *Store) DeleteSocialAccount(ctx context.Context, orgID, id string) error {
	return s.tbl.Delete(ctx, table.Key{PK: orgID, SK: skSocialPrefix + id})
}

func listRows[T any](ctx context.Context, s *Store, orgID, prefix string) ([]T, error) {
	items, err := s.tbl.Query(ctx, orgID, prefix)
	if err != nil {
		return nil, fmt.Errorf("query %s rows of %s: %w", strings.TrimSuffix(prefix, "#"), orgID, err)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		var v T
		if err := table.Decode(it, &v); err != nil {
			s.log.Warn("undecodable row", zap.String("sk", it.String(table.AttrSK)), zap.Error(err))
			continue
		}
		if err := models.Validate(v); err != nil {
			s.log.Warn("invalid row", zap.String("sk", it.String(table.AttrSK)), zap.Error(err))
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Handler serves /organisation for the caller's own organisation.
type Handler struct {
	store *Store
	log   *zap.Logger
}

func NewHandler(store *Store, log *zap.Logger) *Handler {
	return &Handler{store: store, log: log.Named("organisation.http")}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	g := rg.Group("/organisation", mw...)
	admin := middleware.RequireAdmin()

	g.GET("", h.get)
	g.PUT("", admin, h.put)

	g.GET("/operators", h.listOperators)
	g.POST("/operators", admin, h.upsertOperator)
	g.PUT("/operators/:id", admin, h.upsertOperator)
	g.DELETE("/operators/:id", admin, h.deleteOperator)

	g.GET("/social-accounts", h.listSocialAccounts)
	g.PUT("/social-accounts/:id", admin, h.upsertSocialAccount)
	g.DELETE("/social-accounts/:id", admin, h.deleteSocialAccount)
}

func (h *Handler) get(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	org, err := h.store.GetOrganisation(c.Request.Context(), sess.OrgID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if org == nil {
		response.NotFoundMsg(c, "organisation not found")
		return
	}
	response.OK(c, org)
}

func (h *Handler) put(c *gin.Context) {
	var org models.Organisation
	if err := c.ShouldBindJSON(&org); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	org.ID = middleware.SessionFrom(c).OrgID
	if err := models.Validate(org); err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.store.PutOrganisation(c.Request.Context(), org); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, org)
}

func (h *Handler) listOperators(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	ops, err := h.store.ListOperators(c.Request.Context(), sess.OrgID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	// operator users only see their own operator
	if sess.IsOperatorUser {
		mine := ops[:0]
		for _, op := range ops {
			if op.OperatorOrgID == sess.OperatorOrgID {
				mine = append(mine, op)
			}
		}
		ops = mine
	}
	response.OK(c, ops)
}

func (h *Handler) upsertOperator(c *gin.Context) {
	var op models.Operator
	if err := c.ShouldBindJSON(&op); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if id := c.Param("id"); id != "" {
		op.OperatorOrgID = id
	}
	saved, err := h.store.UpsertOperator(c.Request.Context(), middleware.SessionFrom(c).OrgID, op)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if c.Param("id") == "" {
		response.Created(c, saved)
		return
	}
	response.OK(c, saved)
}

func (h *Handler) deleteOperator(c *gin.Context) {
	if err := h.store.DeleteOperator(c.Request.Context(), middleware.SessionFrom(c).OrgID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) listSocialAccounts(c *gin.Context) {
	accs, err := h.store.ListSocialAccounts(c.Request.Context(), middleware.SessionFrom(c).OrgID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, accs)
}

func (h *Handler) upsertSocialAccount(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	var acc models.SocialAccount
	if err := c.ShouldBindJSON(&acc); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	acc.ID = c.Param("id")
	if acc.AddedBy == "" {
		acc.AddedBy = sess.DisplayName()
	}
	if err := h.store.UpsertSocialAccount(c.Request.Context(), sess.OrgID, acc); err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, acc)
}

func (h *Handler) deleteSocialAccount(c *gin.Context) {
	if err := h.store.DeleteSocialAccount(c.Request.Context(), middleware.SessionFrom(c).OrgID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case models.IsValidationError(err):
		response.BadRequest(c, err.Error())
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, err)
	}
}
