package controllers

import (
	"context"
	"errors"
	"net/http"

	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthServiceAPI interface {
	Register(ctx context.Context, req services.RegisterRequest) error
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

type UserServiceAPI interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
}

type AuthController struct {
	auth      AuthServiceAPI
	users     UserServiceAPI
	validator *RequestValidator
}

func NewAuthController(auth AuthServiceAPI, users UserServiceAPI, validator *RequestValidator) *AuthController {
	return &AuthController{auth: auth, users: users, validator: validator}
}

func (ctrl *AuthController) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := ctrl.auth.Register(c.Request.Context(), req); err != nil {
		if errors.Is(err, services.ErrUserExists) {
			_ = c.Error(apperrors.BadRequest("User already exists", err))
			return
		}
		zap.L().Error("Registration failed", zap.String("email", req.Email), zap.Error(err))
		_ = c.Error(apperrors.Internal("Error registering user", err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully. Please check your email for verification."})
}

func (ctrl *AuthController) VerifyEmail(c *gin.Context) {
	if err := ctrl.auth.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		if errors.Is(err, services.ErrInvalidVerificationToken) {
			_ = c.Error(apperrors.BadRequest("Invalid or expired verification token", err))
			return
		}
		_ = c.Error(apperrors.Internal("Error verifying email", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (ctrl *AuthController) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	res, err := ctrl.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			_ = c.Error(apperrors.BadRequest("User does not exist", err))
		case errors.Is(err, services.ErrInvalidCredentials):
			_ = c.Error(apperrors.BadRequest("Invalid credentials", err))
		default:
			_ = c.Error(apperrors.Internal("Error logging in", err))
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Login successful", "token": res.Token, "role": res.Role})
}

func (ctrl *AuthController) ListUsers(c *gin.Context) {
	users, err := ctrl.users.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(apperrors.Internal("Error fetching users", err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": users})
}

type checkUsernameRequest struct {
	Username string `json:"username" validate:"required,notblank"`
}

func (ctrl *AuthController) CheckUsername(c *gin.Context) {
	var req checkUsernameRequest
	if err := ctrl.validator.BindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	available, err := ctrl.users.UsernameAvailable(c.Request.Context(), req.Username)
	if err != nil {
		_ = c.Error(apperrors.Internal("Error checking username", err))
		return
	}
	if !available {
		_ = c.Error(apperrors.Conflict("Username already exists"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Username is available"})
}
