package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/wholesalehub/sessiongate/internal/core/ports"
)

type VerificationHandler struct {
	service ports.VerificationService
}

func NewVerificationHandler(service ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

type submitRequest struct {
	Documents []string `json:"documents" validate:"required,min=1,dive,required"`
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Submit sends identity documents for review (required|rejected -> pending).
//
// @Summary      Submit verification documents
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submitRequest  true  "Document references"
// @Success      200   {object}  domain.Account
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /verification/submit [post]
func (h *VerificationHandler) Submit(c echo.Context) error {
	accountID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.Submit(c.Request().Context(), accountID, req.Documents)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Approve is the administrative pending -> approved decision.
//
// @Summary      Approve a seller
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Seller account id"
// @Success      200  {object}  domain.Account
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /admin/sellers/{id}/verification/approve [post]
func (h *VerificationHandler) Approve(c echo.Context) error {
	account, err := h.service.Approve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}

// Reject is the administrative pending -> rejected decision.
//
// @Summary      Reject a seller
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Seller account id"
// @Param        body  body      rejectRequest  true  "Reason shown to the seller"
// @Success      200   {object}  domain.Account
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /admin/sellers/{id}/verification/reject [post]
func (h *VerificationHandler) Reject(c echo.Context) error {
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.Reject(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, account)
}
