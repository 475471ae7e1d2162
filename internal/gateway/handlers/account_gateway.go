package handlers

import (
	"net/http"
	"time"

	"resto-system/internal/auth"
	"resto-system/internal/database/models"
	"resto-system/internal/gateway/middleware"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type AccountHTTPHandler struct {
	accounts *auth.Service
}

func NewAccountHTTPHandler(accounts *auth.Service) *AccountHTTPHandler {
	return &AccountHTTPHandler{accounts: accounts}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type StepUpRequest struct {
	Code string `json:"code" binding:"required"`
}

type CreateAccountRequest struct {
	Username string      `json:"username" binding:"required"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     models.Role `json:"role" binding:"required"`
	FullName string      `json:"fullName"`
}

// homePages is where each role lands after login.
var homePages = map[models.Role]string{
	models.RoleAdmin:   "/admin.html",
	models.RoleKitchen: "/kitchen.html",
	models.RoleStaff:   "/staff.html",
}

func (h *AccountHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	setSessionCookie(c, session)
	c.JSON(http.StatusOK, successResponse("Login successful", sessionBody(session)))
}

func (h *AccountHTTPHandler) StepUp(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Login required"))
		return
	}

	var req StepUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	session, err := h.accounts.CompleteStepUp(c.Request.Context(), p, req.Code)
	if err != nil {
		handleError(c, err)
		return
	}

	setSessionCookie(c, session)
	c.JSON(http.StatusOK, successResponse("Second factor accepted", sessionBody(session)))
}

func (h *AccountHTTPHandler) Logout(c *gin.Context) {
	if p, ok := middleware.PrincipalFrom(c); ok {
		if err := h.accounts.Logout(c.Request.Context(), p); err != nil {
			log.Error().Err(err).Str("username", p.Username).Msg("failed to revoke session")
		}
	}
	clearSessionCookie(c)
	c.JSON(http.StatusOK, successResponse("Logged out", nil))
}

func (h *AccountHTTPHandler) Me(c *gin.Context) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Login required"))
		return
	}
	c.JSON(http.StatusOK, successResponse("Current session", gin.H{
		"username":       p.Username,
		"role":           p.Role,
		"stepUpRequired": !h.accounts.StepUp().Satisfied(p),
		"expiresAt":      p.ExpiresAt,
	}))
}

func (h *AccountHTTPHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	account, err := h.accounts.CreateAccount(c.Request.Context(), auth.NewAccount{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		FullName: req.FullName,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse("Account created", account))
}

func (h *AccountHTTPHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.ListAccounts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse("Accounts", accounts))
}

func sessionBody(s auth.Session) gin.H {
	redirect := homePages[s.Principal.Role]
	if s.StepUpRequired {
		redirect = middleware.StepUpPage
	}
	return gin.H{
		"token":          s.Token,
		"expiresAt":      s.Principal.ExpiresAt,
		"username":       s.Principal.Username,
		"role":           s.Principal.Role,
		"stepUpRequired": s.StepUpRequired,
		"redirect":       redirect,
	}
}

func setSessionCookie(c *gin.Context, s auth.Session) {
	maxAge := int(time.Until(s.Principal.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, s.Token, maxAge, "/", "", c.Request.TLS != nil, true)
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", c.Request.TLS != nil, true)
}
