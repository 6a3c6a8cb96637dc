package controllers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/middleware"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/service"
	"github.com/achufistov/shortypanel/internal/app/views"
)

// Flash and error messages of the URL pages.
const (
	MsgURLAdded         = "URL added."
	MsgShortenerFailed  = "Shortener service failed"
	MsgCouldNotRedirect = "Could not redirect"
	MsgNotYours         = "This URL is not yours!"
	MsgURLDeleted       = "URL deleted."
	MsgURLNotFound      = "URL could not be found."
	MsgURLNotDeleted    = "URL could not be deleted."
)

// CreatedURL is the confirmation shown after shortening.
type CreatedURL struct {
	Code     string `json:"short_code"`
	ShortURL string `json:"short_url"`
	URL      string `json:"url"`
}

// URLController handles URL-related HTTP requests
type URLController struct {
	service *service.Service
	view    *views.View
	logger  *zap.Logger
}

// NewURLController creates a new URLController instance
func NewURLController(svc *service.Service, view *views.View, logger *zap.Logger) *URLController {
	return &URLController{
		service: svc,
		view:    view,
		logger:  logger,
	}
}

// HandleIndex renders the principal summary and pending flashes
func (c *URLController) HandleIndex(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	c.view.Render(w, http.StatusOK, views.NewPage(w, r, p))
}

// HandleShortenForm renders the empty shorten form
func (c *URLController) HandleShortenForm(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	c.view.RenderForm(w, http.StatusOK, views.NewPage(w, r, p), "shorten", nil)
}

// HandleShorten handles URL shortening requests
func (c *URLController) HandleShorten(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())

	in, err := decodeInput[models.ShortenInput](r)
	if err != nil {
		c.view.RenderForm(w, http.StatusUnprocessableEntity, views.NewPage(w, r, p), "shorten",
			models.ValidationErrors{{Field: "url", Message: "Invalid request body"}})
		return
	}

	resp, err := c.service.ShortenURL(r.Context(), service.ShortenURLRequest{Principal: p, Input: in})
	if verrs, ok := models.IsValidation(err); ok {
		c.view.RenderForm(w, http.StatusUnprocessableEntity, views.NewPage(w, r, p), "shorten", verrs)
		return
	}
	if err != nil {
		c.logger.Error("shorten failed", zap.Error(err))
		c.view.RenderError(w, http.StatusNotFound, MsgShortenerFailed)
		return
	}

	c.view.Redirect(w, r, "/url/created/"+resp.URL.ShortURL, views.Success(MsgURLAdded))
}

// HandleCreated echoes a freshly created short code
func (c *URLController) HandleCreated(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "short")
	url, err := c.service.GetURL(r.Context(), code)
	if err != nil {
		c.view.RenderError(w, http.StatusNotFound, MsgURLNotFound)
		return
	}

	page := views.NewPage(w, r, auth.PrincipalFrom(r.Context()))
	page.Data = CreatedURL{Code: url.ShortURL, ShortURL: c.service.ShortURL(url.ShortURL), URL: url.OriginalURL}
	c.view.Render(w, http.StatusOK, page)
}

// HandleRedirect resolves a short code, records the visit and redirects to the long URL
func (c *URLController) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "short")

	longURL, err := c.service.ResolveURL(r.Context(), code, middleware.ClientIP(r))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			c.logger.Error("resolve failed", zap.String("code", code), zap.Error(err))
		}
		c.view.RenderError(w, http.StatusNotFound, MsgCouldNotRedirect)
		return
	}

	http.Redirect(w, r, longURL, http.StatusFound)
}

// HandleDeleteForm renders the delete confirmation of an owned URL
func (c *URLController) HandleDeleteForm(w http.ResponseWriter, r *http.Request) {
	c.deleteForm(w, r, "/account/")
}

// HandleDelete deletes an owned URL
func (c *URLController) HandleDelete(w http.ResponseWriter, r *http.Request) {
	c.delete(w, r, "/account/")
}

// HandleAdminDeleteForm renders the delete confirmation of any URL
func (c *URLController) HandleAdminDeleteForm(w http.ResponseWriter, r *http.Request) {
	c.deleteForm(w, r, "/admin/urls/1")
}

// HandleAdminDelete deletes any URL
func (c *URLController) HandleAdminDelete(w http.ResponseWriter, r *http.Request) {
	c.delete(w, r, "/admin/urls/1")
}

func (c *URLController) deleteForm(w http.ResponseWriter, r *http.Request, back string) {
	p := auth.PrincipalFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		c.view.Redirect(w, r, back, views.Danger(MsgURLNotFound))
		return
	}

	url, err := c.service.URLForDelete(r.Context(), p, id)
	if err != nil {
		c.view.Redirect(w, r, back, views.Danger(deleteMessage(err)))
		return
	}

	page := views.NewPage(w, r, p)
	page.Data = url
	c.view.RenderForm(w, http.StatusOK, page, "delete", nil)
}

func (c *URLController) delete(w http.ResponseWriter, r *http.Request, back string) {
	p := auth.PrincipalFrom(r.Context())
	id, ok := idParam(r)
	if !ok {
		c.view.Redirect(w, r, back, views.Danger(MsgURLNotFound))
		return
	}

	if err := c.service.DeleteURL(r.Context(), p, id); err != nil {
		if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, models.ErrForbidden) {
			c.logger.Error("delete url failed", zap.Int64("url_id", id), zap.Error(err))
		}
		c.view.Redirect(w, r, back, views.Danger(deleteMessage(err)))
		return
	}

	c.view.Redirect(w, r, back, views.Success(MsgURLDeleted))
}

func deleteMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrForbidden):
		return MsgNotYours
	case errors.Is(err, models.ErrNotFound):
		return MsgURLNotFound
	default:
		return MsgURLNotDeleted
	}
}

// HandleAccount lists the caller's URLs with their visit counts
func (c *URLController) HandleAccount(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	page := views.NewPage(w, r, p)
	page.Data = c.service.ListUserURLs(r.Context(), p, pageParam(r))
	c.view.Render(w, http.StatusOK, page)
}
