package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/auth"
	"github.com/web-casa/topoviz/internal/model"
	"gorm.io/gorm"
)

// AuthHandler manages authentication endpoints
type AuthHandler struct {
	db      *gorm.DB
	secret  string
	limiter *auth.RateLimiter
	logger  *slog.Logger
	auditor
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(db *gorm.DB, secret string, limiter *auth.RateLimiter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		db:      db,
		secret:  secret,
		limiter: limiter,
		logger:  logger,
		auditor: auditor{db: db, target: "user"},
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type setupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

var errSetupDone = errors.New("admin user already exists")

// Setup creates the initial admin user (only works when no users exist)
func (h *AuthHandler) Setup(c *gin.Context) {
	var count int64
	h.db.Model(&model.User{}).Count(&count)
	if count > 0 {
		respondSetupDone(c)
		return
	}

	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password", "error_key": "error.internal"})
		return
	}

	// the count is repeated inside the transaction so concurrent setups
	// cannot both create an admin
	user := model.User{Username: req.Username, Password: hashed}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.User{}).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return errSetupDone
		}
		return tx.Create(&user).Error
	})
	if errors.Is(err, errSetupDone) {
		respondSetupDone(c)
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "error_key": "error.internal"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token", "error_key": "error.internal"})
		return
	}

	h.logger.Info("admin user created", "username", user.Username)
	c.JSON(http.StatusOK, gin.H{
		"message": "Admin user created successfully",
		"token":   token,
		"user":    gin.H{"id": user.ID, "username": user.Username},
	})
}

// Login authenticates a user and returns a JWT token
func (h *AuthHandler) Login(c *gin.Context) {
	ip := c.ClientIP()

	allowed, waitSec := h.limiter.Check(ip)
	if !allowed {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "Too many login attempts",
			"error_key":   "error.too_many_attempts",
			"retry_after": waitSec,
		})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var user model.User
	if err := h.db.Where("username = ?", req.Username).First(&user).Error; err != nil || !auth.CheckPassword(user.Password, req.Password) {
		h.limiter.RecordFail(ip)
		h.logger.Warn("login failed", "username", req.Username, "ip", ip)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials", "error_key": "error.invalid_credentials"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, h.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token", "error_key": "error.internal"})
		return
	}

	h.limiter.RecordSuccess(ip)
	c.Set("user_id", user.ID)
	c.Set("username", user.Username)
	h.audit(c, "LOGIN", user.ID, "Logged in")
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "username": user.Username},
	})
}

// Me returns the current authenticated user info
func (h *AuthHandler) Me(c *gin.Context) {
	userID, _ := c.Get("user_id")
	username, _ := c.Get("username")

	c.JSON(http.StatusOK, gin.H{
		"id":       userID,
		"username": username,
	})
}

// ChangePassword replaces the current user's password after checking the
// old one
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID := c.GetUint("user_id")
	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found", "error_key": "error.not_found"})
		return
	}
	if !auth.CheckPassword(user.Password, req.OldPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect", "error_key": "error.invalid_credentials"})
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password", "error_key": "error.internal"})
		return
	}
	if err := h.db.Model(&user).Update("password", hashed).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password", "error_key": "error.internal"})
		return
	}

	h.audit(c, "UPDATE", user.ID, "Changed password")
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func respondSetupDone(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Admin user already exists", "error_key": "error.setup_done"})
}

// NeedSetup checks if initial setup is required
func (h *AuthHandler) NeedSetup(c *gin.Context) {
	var count int64
	h.db.Model(&model.User{}).Count(&count)
	c.JSON(http.StatusOK, gin.H{"need_setup": count == 0})
}
