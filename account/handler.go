package account

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/auth/authctx"
	"github.com/kbukum/authgate/credential"
	apperrors "github.com/kbukum/authgate/errors"
	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/server"
	"github.com/kbukum/authgate/validation"
)

// MaxRoleNameLength bounds a role name in requests.
const MaxRoleNameLength = 256

func init() {
	if err := validation.RegisterString("username", credential.ValidUsername); err != nil {
		panic(err)
	}
	if err := validation.RegisterString("rolename", ValidRoleName); err != nil {
		panic(err)
	}
}

// ValidRoleName reports whether role is non-empty, short enough and free of
// whitespace.
func ValidRoleName(role string) bool {
	return role != "" && len(role) <= MaxRoleNameLength && !strings.ContainsAny(role, " \t\r\n")
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=256,username"`
	Password string `json:"password" validate:"required,max=1024"`
}

type createUserRequest struct {
	Username string   `json:"username" validate:"required,max=256,username"`
	Password string   `json:"password" validate:"required,max=1024"`
	Roles    []string `json:"roles" validate:"dive,rolename"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=1024"`
	NewPassword     string `json:"new_password" validate:"required,max=1024"`
}

type setRolesRequest struct {
	Roles []string `json:"roles" validate:"dive,rolename"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenResponse carries an issued access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MeResponse is the caller's stored user plus the token it authenticated with.
type MeResponse struct {
	UserResponse
	TokenID        string    `json:"token_id,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at"`
}

func newUserResponse(u *credential.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Roles:     u.RoleNames(),
		CreatedAt: u.CreatedAt,
	}
}

// Handler serves the account routes.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a Handler for service.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log.WithComponent("account-http")}
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := server.BindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	u, err := h.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err, req.Username)
		return
	}
	server.RespondCreated(c, newUserResponse(u))
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := server.BindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	tok, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err, req.Username)
		return
	}
	server.RespondOK(c, TokenResponse{
		AccessToken: tok.Value,
		TokenType:   "Bearer",
		ExpiresIn:   int64(tok.ExpiresAt.Sub(tok.IssuedAt).Seconds()),
		ExpiresAt:   tok.ExpiresAt,
	})
}

func (h *Handler) me(c *gin.Context) {
	p, err := authctx.PrincipalOrError(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, apperrors.Unauthenticated())
		return
	}
	u, err := h.service.Profile(c.Request.Context(), p.Subject)
	if err != nil {
		h.fail(c, err, "")
		return
	}
	server.RespondOK(c, MeResponse{
		UserResponse:   newUserResponse(u),
		TokenID:        p.TokenID,
		TokenExpiresAt: p.ExpiresAt,
	})
}

func (h *Handler) changePassword(c *gin.Context) {
	p, err := authctx.PrincipalOrError(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, apperrors.Unauthenticated())
		return
	}
	var req changePasswordRequest
	if err := server.BindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	if _, err := h.service.ChangePassword(c.Request.Context(), p.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(c, err, "")
		return
	}
	server.RespondNoContent(c)
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := server.BindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	u, err := h.service.CreateUser(c.Request.Context(), req.Username, req.Password, req.Roles)
	if err != nil {
		h.fail(c, err, req.Username)
		return
	}
	server.RespondCreated(c, newUserResponse(u))
}

func (h *Handler) setRoles(c *gin.Context) {
	username := c.Param("username")
	if appErr := validation.New().
		Required("username", username).
		Check(credential.ValidUsername(username), "username", "may contain only letters, digits and -._@+").
		Validate(); appErr != nil {
		server.RespondWithError(c, appErr)
		return
	}
	var req setRolesRequest
	if err := server.BindJSON(c, &req); err != nil {
		server.RespondWithError(c, err)
		return
	}
	u, err := h.service.SetRoles(c.Request.Context(), username, req.Roles)
	if err != nil {
		h.fail(c, err, username)
		return
	}
	server.RespondOK(c, newUserResponse(u))
}

// fail maps err to its response. Unexpected errors are logged here; the
// client only sees the generic envelope.
func (h *Handler) fail(c *gin.Context, err error, username string) {
	appErr := toAppError(err, username)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.log.WithContext(c.Request.Context()).Error("Account request failed", logger.ErrorFields(c.FullPath(), err))
	}
	if appErr.Code == apperrors.ErrCodeLockedOut {
		if secs, ok := appErr.Details["retry_after_seconds"].(int); ok && secs > 0 {
			c.Header("Retry-After", strconv.Itoa(secs))
		}
	}
	server.RespondWithError(c, appErr)
}
