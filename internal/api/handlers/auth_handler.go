package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/nineaccord/salesboard/internal/api/middleware"
)

type AuthHandler struct {
	sessions *middleware.Sessions
}

func NewAuthHandler(sessions *middleware.Sessions) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Login accepts form or JSON credentials and opens a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid login request", "details": err.Error()})
		return
	}

	if !h.sessions.Authenticate(req.Username, req.Password) {
		log.Warn().Str("ip", c.ClientIP()).Msg("login rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "아이디 또는 비밀번호가 올바르지 않습니다."})
		return
	}

	h.sessions.Create(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Revoke(c)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
