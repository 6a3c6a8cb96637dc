package controllers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/service"
	"github.com/achufistov/shortypanel/internal/app/views"
)

// Flash messages of the admin panel.
const (
	MsgUserDeleted     = "User deleted"
	MsgUserNotDeleted  = "User does not exist or cannot be deleted!"
	MsgPasswordChanged = "Password changed succesfully."
	MsgPasswordFailed  = "Password could not be changed."
	MsgUserNotFound    = "User does not exist."
	MsgFieldsMismatch  = "Fields do not match!"
)

const usersList = "/admin/users/1"

// Popularity is the visit log of one URL.
type Popularity struct {
	URL    models.URL                 `json:"url"`
	Visits service.Page[models.Visit] `json:"visits"`
}

// AdminController serves the role-gated admin panel.
type AdminController struct {
	service *service.Service
	view    *views.View
	logger  *zap.Logger
}

// NewAdminController creates a new AdminController instance
func NewAdminController(svc *service.Service, view *views.View, logger *zap.Logger) *AdminController {
	return &AdminController{service: svc, view: view, logger: logger}
}

// HandlePanel renders the panel with service totals. A stats failure leaves them out.
func (c *AdminController) HandlePanel(w http.ResponseWriter, r *http.Request) {
	page := views.NewPage(w, r, auth.PrincipalFrom(r.Context()))
	if stats, err := c.service.Stats(r.Context()); err != nil {
		c.logger.Warn("stats unavailable", zap.Error(err))
	} else {
		page.Data = stats
	}
	c.view.Render(w, http.StatusOK, page)
}

// HandleURLs lists every URL, 10 per page
func (c *AdminController) HandleURLs(w http.ResponseWriter, r *http.Request) {
	page := views.NewPage(w, r, auth.PrincipalFrom(r.Context()))
	page.Data = c.service.ListAllURLs(r.Context(), pageParam(r))
	c.view.Render(w, http.StatusOK, page)
}

// HandleUsers lists standard users, 10 per page
func (c *AdminController) HandleUsers(w http.ResponseWriter, r *http.Request) {
	page := views.NewPage(w, r, auth.PrincipalFrom(r.Context()))
	page.Data = c.service.ListUsers(r.Context(), pageParam(r))
	c.view.Render(w, http.StatusOK, page)
}

// HandleDropUser deletes a standard user together with the URLs it owns
func (c *AdminController) HandleDropUser(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		c.view.Redirect(w, r, usersList, views.Danger(MsgUserNotDeleted))
		return
	}

	if err := c.service.DeleteUser(r.Context(), p, id); err != nil {
		if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrForbidden) {
			c.logger.Error("delete user failed", zap.Int64("user_id", id), zap.Error(err))
		}
		c.view.Redirect(w, r, usersList, views.Danger(MsgUserNotDeleted))
		return
	}

	c.view.Redirect(w, r, usersList, views.Success(MsgUserDeleted))
}

// HandlePasswordForm renders the change-password form of a user
func (c *AdminController) HandlePasswordForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.view.Redirect(w, r, usersList, views.Danger(MsgUserNotFound))
		return
	}

	user, err := c.service.GetUser(r.Context(), id)
	if err != nil {
		c.view.Redirect(w, r, usersList, views.Danger(MsgUserNotFound))
		return
	}

	page := views.NewPage(w, r, auth.PrincipalFrom(r.Context()))
	page.Data = user
	c.view.RenderForm(w, http.StatusOK, page, "password", nil)
}

// HandleChangePassword sets a new password for a user
func (c *AdminController) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		c.view.Redirect(w, r, usersList, views.Danger(MsgUserNotFound))
		return
	}

	in, err := decodeInput[models.PasswordInput](r)
	if err != nil {
		c.view.RenderForm(w, http.StatusUnprocessableEntity, views.NewPage(w, r, p), "password",
			models.ValidationErrors{{Field: "password", Message: "Invalid request body"}})
		return
	}

	err = c.service.ChangePassword(r.Context(), p, id, in)
	if verrs, ok := models.IsValidation(err); ok {
		page := views.NewPage(w, r, p)
		if in.Password != in.Confirm {
			page.Flashes = append(page.Flashes, views.Danger(MsgFieldsMismatch))
		}
		c.view.RenderForm(w, http.StatusUnprocessableEntity, page, "password", verrs)
		return
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.view.Redirect(w, r, usersList, views.Danger(MsgUserNotFound))
	case err != nil:
		c.logger.Error("change password failed", zap.Int64("user_id", id), zap.Error(err))
		c.view.Redirect(w, r, usersList, views.Danger(MsgPasswordFailed))
	default:
		c.view.Redirect(w, r, usersList, views.Success(MsgPasswordChanged))
	}
}

// HandlePopularity lists the visits of one URL, 10 per page
func (c *AdminController) HandlePopularity(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		c.view.Redirect(w, r, "/admin/urls/1", views.Danger(MsgURLNotFound))
		return
	}

	url, err := c.service.URLByID(r.Context(), id)
	if err != nil {
		c.view.Redirect(w, r, "/admin/urls/1", views.Danger(MsgURLNotFound))
		return
	}

	page := views.NewPage(w, r, auth.PrincipalFrom(r.Context()))
	page.Data = Popularity{URL: url, Visits: c.service.ListVisits(r.Context(), id, pageParam(r))}
	c.view.Render(w, http.StatusOK, page)
}
