package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/tubeview/internal/middleware"
	"github.com/user/tubeview/internal/model"
	"github.com/user/tubeview/internal/utils"
)

type registerReq struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type loginReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResp struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// Register 注册并直接签发 Token
func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Users.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.respondToken(c, user, true)
}

// Login 登录
func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.respondToken(c, user, false)
}

func (h *Handler) respondToken(c *gin.Context, user *model.User, created bool) {
	token, err := middleware.GenerateToken(user.ID, user.Username, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		fail(c, err)
		return
	}
	resp := tokenResp{Token: token, User: toUserDTO(user)}
	if created {
		utils.Created(c, resp)
		return
	}
	utils.Success(c, resp)
}

// Me 当前用户信息
func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.Users.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, toUserDTO(user))
}
