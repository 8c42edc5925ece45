package disruption

import (
	"errors"
	"strconv"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/middleware"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/pagination"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/response"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/table"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log.Named("disruption.http")}
}

// RegisterRoutes mounts /disruptions and /templates behind mw, which must
// install the session.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, mw ...gin.HandlerFunc) {
	live := rg.Group("/disruptions", mw...)
	h.registerShared(live, false)
	live.POST("/:id/approve", h.approve)
	live.POST("/:id/reject", h.reject)
	live.POST("/:id/duplicate", h.duplicate)
	live.GET("/:id/history", h.history)

	templates := rg.Group("/templates", mw...)
	h.registerShared(templates, true)
	templates.POST("/:id/instantiate", h.instantiate)
}

func (h *Handler) registerShared(g *gin.RouterGroup, isTemplate bool) {
	g.GET("", h.list(isTemplate))
	g.POST("", h.create(isTemplate))
	g.GET("/:id", h.get(isTemplate))
	g.PUT("/:id", h.updateInfo(isTemplate))
	g.DELETE("/:id", h.delete(isTemplate))
	g.PUT("/:id/consequences/:index", h.upsertConsequence(isTemplate))
	g.DELETE("/:id/consequences/:index", h.deleteConsequence(isTemplate))
	g.PUT("/:id/social-media-posts/:index", h.upsertSocialMediaPost(isTemplate))
	g.DELETE("/:id/social-media-posts/:index", h.deleteSocialMediaPost(isTemplate))
	g.POST("/:id/publish", h.publish(isTemplate))
	g.POST("/:id/publish-edit", h.publishEdit(isTemplate))
	g.POST("/:id/discard-edits", h.discardEdits(isTemplate))
}

func (h *Handler) list(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		q := pagination.FromContext(c)
		items, next, err := h.svc.ListPage(c.Request.Context(), sess, isTemplate, q.Token, q.Limit)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Page(c, items, next)
	}
}

func (h *Handler) create(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		var info models.DisruptionInfo
		if err := c.ShouldBindJSON(&info); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		d, err := h.svc.Create(c.Request.Context(), sess, info, isTemplate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.Created(c, d)
	}
}

func (h *Handler) get(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		d, err := h.svc.Get(c.Request.Context(), sess, c.Param("id"), isTemplate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.OK(c, d)
	}
}

func (h *Handler) updateInfo(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		var info models.DisruptionInfo
		if err := c.ShouldBindJSON(&info); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		d, err := h.svc.UpdateInfo(c.Request.Context(), sess, c.Param("id"), info, isTemplate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.OK(c, d)
	}
}

func (h *Handler) delete(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		if err := h.svc.Delete(c.Request.Context(), sess, c.Param("id"), isTemplate); err != nil {
			h.writeError(c, err)
			return
		}
		response.NoContent(c)
	}
}

func (h *Handler) upsertConsequence(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		index, ok := indexParam(c)
		if !ok {
			return
		}
		var body models.Consequence
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		body.ConsequenceIndex = index
		d, err := h.svc.UpsertConsequence(c.Request.Context(), sess, c.Param("id"), body, isTemplate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.OK(c, d)
	}
}

func (h *Handler) deleteConsequence(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		index, ok := indexParam(c)
		if !ok {
			return
		}
		d, err := h.svc.DeleteConsequence(c.Request.Context(), sess, c.Param("id"), index, isTemplate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.OK(c, d)
	}
}

func (h *Handler) upsertSocialMediaPost(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		index, ok := indexParam(c)
		if !ok {
			return
		}
		var body models.SocialMediaPost
		if err := c.ShouldBindJSON(&body); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		body.SocialMediaPostIndex = index
		d, err := h.svc.UpsertSocialMediaPost(c.Request.Context(), sess, c.Param("id"), body, isTemplate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.OK(c, d)
	}
}

func (h *Handler) deleteSocialMediaPost(isTemplate bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		index, ok := indexParam(c)
		if !ok {
			return
		}
		d, err := h.svc.DeleteSocialMediaPost(c.Request.Context(), sess, c.Param("id"), index, isTemplate)
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.OK(c, d)
	}
}

// action adapts a service call that takes the session, id and table to a
// handler returning the updated disruption.
type action func(svc *Service, c *gin.Context, sess *models.Session, id string) (*models.Disruption, error)

func (h *Handler) run(fn action) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := currentSession(c)
		if !ok {
			return
		}
		d, err := fn(h.svc, c, sess, c.Param("id"))
		if err != nil {
			h.writeError(c, err)
			return
		}
		response.OK(c, d)
	}
}

func (h *Handler) publish(isTemplate bool) gin.HandlerFunc {
	return h.run(func(svc *Service, c *gin.Context, sess *models.Session, id string) (*models.Disruption, error) {
		return svc.Publish(c.Request.Context(), sess, id, isTemplate)
	})
}

func (h *Handler) publishEdit(isTemplate bool) gin.HandlerFunc {
	return h.run(func(svc *Service, c *gin.Context, sess *models.Session, id string) (*models.Disruption, error) {
		return svc.PublishEdit(c.Request.Context(), sess, id, isTemplate)
	})
}

func (h *Handler) discardEdits(isTemplate bool) gin.HandlerFunc {
	return h.run(func(svc *Service, c *gin.Context, sess *models.Session, id string) (*models.Disruption, error) {
		return svc.DiscardEdits(c.Request.Context(), sess, id, isTemplate)
	})
}

func (h *Handler) approve(c *gin.Context) {
	h.run(func(svc *Service, c *gin.Context, sess *models.Session, id string) (*models.Disruption, error) {
		return svc.Approve(c.Request.Context(), sess, id)
	})(c)
}

func (h *Handler) reject(c *gin.Context) {
	h.run(func(svc *Service, c *gin.Context, sess *models.Session, id string) (*models.Disruption, error) {
		return svc.Reject(c.Request.Context(), sess, id)
	})(c)
}

func (h *Handler) duplicate(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	d, err := h.svc.Duplicate(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, d)
}

func (h *Handler) instantiate(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	d, err := h.svc.CreateFromTemplate(c.Request.Context(), sess, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, d)
}

func (h *Handler) history(c *gin.Context) {
	sess, ok := currentSession(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), sess, c.Param("id"), false)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.OK(c, d.History)
}

func currentSession(c *gin.Context) (*models.Session, bool) {
	sess := middleware.SessionFrom(c)
	if sess == nil {
		response.Unauthorized(c)
		return nil, false
	}
	return sess, true
}

func indexParam(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.BadRequest(c, "index must be a non-negative integer")
		return 0, false
	}
	return index, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case IsTooManyConsequences(err), errors.Is(err, ErrSocialMediaPostLimit):
		response.UnprocessableEntity(c, err.Error())
	case models.IsValidationError(err), errors.Is(err, table.ErrInvalidToken):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFoundMsg(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.ForbiddenMsg(c, err.Error())
	case errors.Is(err, ErrInvalidState):
		response.Conflict(c, err.Error())
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c, err)
	}
}
