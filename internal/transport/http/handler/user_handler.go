package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-account-service/internal/domain"
	resp "user-account-service/internal/transport/http/response"
)

// UserService 边界层依赖的编排服务
type UserService interface {
	Create(ctx context.Context, name, email, password string) (*domain.User, error)
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	FindAll(ctx context.Context, pageNumber int) (*domain.PaginatedResult[domain.User], error)
	ChangePassword(ctx context.Context, id uint64, password string) error
	UpdateUser(ctx context.Context, id uint64, name, email string) (*domain.User, error)
	DeleteUser(ctx context.Context, id uint64) error
}

type createUserIn struct {
	Name     string `json:"name"     binding:"required,max=50,namechars"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72,alphanum"`
}

type createUserOut struct {
	ID uint64 `json:"id"`
}

type modifyUserIn struct {
	Name  string `json:"name"  binding:"required,max=50,namechars"`
	Email string `json:"email" binding:"required,email"`
}

type changePasswordIn struct {
	Password string `json:"password" binding:"required,min=8,max=72,alphanum"`
}

// UserDetails 对外用户信息（不含密码摘要）
type UserDetails struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Version int    `json:"version"`
}

func toDetails(u domain.User) UserDetails {
	return UserDetails{ID: u.ID, Name: u.Name, Email: u.Email, Version: u.Version}
}

type UserHandler struct {
	svc UserService
	loc resp.Localizer
	log *zap.Logger
}

func NewUserHandler(svc UserService, loc resp.Localizer, l *zap.Logger) *UserHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserHandler{svc: svc, loc: loc, log: l}
}

// MountAPI 挂载到 /api/v1
func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/users")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.ChangePassword)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
}

func (h *UserHandler) Priority() int { return 10 }

func (h *UserHandler) Create(c *gin.Context) {
	var in createUserIn
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	u, err := h.svc.Create(c.Request.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp.OK(createUserOut{ID: u.ID}))
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	u, err := h.svc.FindByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toDetails(*u)))
}

// List 缺省 page=1
func (h *UserHandler) List(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		h.badRequest(c, err)
		return
	}
	p, err := h.svc.FindAll(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(domain.MapPage(p, toDetails)))
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in changePasswordIn
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), id, in.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(nil))
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in modifyUserIn
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, err)
		return
	}
	u, err := h.svc.UpdateUser(c.Request.Context(), id, in.Name, in.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(toDetails(*u)))
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(nil))
}

func (h *UserHandler) pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, err)
		return 0, false
	}
	return id, true
}

// badRequest 校验失败：多个字段的文案用逗号拼接
func (h *UserHandler) badRequest(c *gin.Context, err error) {
	ms := fieldMessages(err)
	texts := make([]string, 0, len(ms))
	for _, m := range ms {
		texts = append(texts, h.loc.Message(m.key, m.params...))
	}
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	c.AbortWithStatusJSON(http.StatusBadRequest, resp.Error(resp.CodeBadRequest, strings.Join(texts, ",")))
}

func (h *UserHandler) fail(c *gin.Context, err error) {
	status, body := resp.FromError(err, h.loc)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}
