package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/user/tubeview/internal/config"
	"github.com/user/tubeview/internal/middleware"
	"github.com/user/tubeview/internal/service"
	"github.com/user/tubeview/internal/utils"
)

// Services 处理器依赖的业务服务
type Services struct {
	Users        *service.UserService
	Videos       *service.VideoService
	Views        *service.ViewService
	Interactions *service.InteractionService
}

// Handler HTTP 处理器
type Handler struct {
	Config *config.Config
	svc    Services
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, svc Services) *Handler {
	return &Handler{Config: cfg, svc: svc}
}

// viewer 由登录状态构造请求方上下文
func viewer(c *gin.Context, fingerprint string) service.Viewer {
	if userID := middleware.GetUserID(c); userID != uuid.Nil {
		return service.IdentifiedViewer(userID, fingerprint)
	}
	return service.AnonymousViewer(fingerprint)
}

// uuidParam 解析路径中的 UUID 参数，失败时已写出 400
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fail(c, service.ErrInvalidField.WithReason("%s 不是合法的 ID", name))
		return uuid.Nil, false
	}
	return id, true
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pagination 读取 limit 与 page（从 1 开始），返回 limit 与 offset
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

// fail 将错误写成统一响应：业务错误按错误码，参数校验错误按 InvalidField，其余为 500
func fail(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		fields := make([]string, 0, len(ve))
		for _, fe := range ve {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
		}
		err = service.ErrInvalidField.WithReason("%s", strings.Join(fields, ", "))
	}

	if appErr, ok := service.AsAppError(err); ok {
		utils.ErrorCode(c, appErr.Status, appErr.Code, appErr.Message, appErr.Reason)
		return
	}

	_ = c.Error(err)
	utils.InternalServerError(c, "")
}

// bindJSON 解析失败时已写出 400
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fail(c, err)
		} else {
			fail(c, service.ErrInvalidField.WithReason("无效的请求数据"))
		}
		return false
	}
	return true
}
