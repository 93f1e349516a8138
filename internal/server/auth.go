package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	authdomain "github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/identity"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "login successful", resp)
}

// Logout exists for client symmetry. Tokens are stateless; the client drops
// its copy and the token ages out at its expiry.
func (s *Server) Logout(c *gin.Context) {
	respondOK(c, "logged out", nil)
}

func (s *Server) Me(c *gin.Context) {
	resp, err := s.authsvc.CurrentUser(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "current user", resp)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	err := s.authsvc.ChangePassword(c.Request.Context(), authdomain.ChangePasswordRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "password changed", nil)
}

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (s *Server) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.authsvc.CreateUser(c.Request.Context(), authdomain.CreateUserRequest{
		Email:       strings.TrimSpace(req.Email),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        identity.Role(strings.TrimSpace(req.Role)),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondCreated(c, "user created", resp)
}

func (s *Server) ListUsers(c *gin.Context) {
	resp, err := s.authsvc.ListUsers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "users", resp)
}

func (s *Server) DeactivateUser(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.authsvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, "user deactivated", nil)
}

func isAuthValidationError(err error) bool {
	switch err {
	case authdomain.ErrInvalidEmail,
		authdomain.ErrInvalidPassword,
		authdomain.ErrInvalidRole:
		return true
	default:
		return false
	}
}
