package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wholesalehub/sessiongate/internal/core/domain"
	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"display_name" validate:"max=120"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token   string          `json:"token"`
	Profile *domain.Account `json:"profile"`
}

// Register creates a new account for the role in the path.
//
// @Summary      Register an account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        role  path      string           true  "Role"  Enums(admin, seller, buyer)
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  domain.Account
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /register/{role} [post]
func (h *AuthHandler) Register(c echo.Context) error {
	role, err := pathRole(c)
	if err != nil {
		return err
	}
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Role:        role,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, account)
}

// Login authenticates an account and returns a role-bound bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        role  path      string        true  "Role"  Enums(admin, seller, buyer)
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /login/{role} [post]
func (h *AuthHandler) Login(c echo.Context) error {
	role, err := pathRole(c)
	if err != nil {
		return err
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, account, err := h.authService.Login(c.Request().Context(), role, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, Profile: account})
}

// Profile returns the fresh profile behind the bearer token. A token issued
// for another role, an unknown account or an invalid token yields 401.
//
// @Summary      Current profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        role  path      string  true  "Role"  Enums(admin, seller, buyer)
// @Success      200   {object}  domain.Account
// @Failure      401   {object}  map[string]string
// @Router       /profile/{role} [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	accountID, role, err := ctxClaims(c)
	if err != nil {
		return err
	}
	account, err := h.authService.Profile(c.Request().Context(), role, accountID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}
