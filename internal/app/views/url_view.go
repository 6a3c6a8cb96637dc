// Package views renders handler results as JSON documents.
package views

import (
	"encoding/json"
	"net/http"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/models"
)

// View handles the presentation logic of every page
type View struct{}

// NewView creates a new View instance
func NewView() *View {
	return &View{}
}

// UserSummary is the principal as shown on pages.
type UserSummary struct {
	ID      int64  `json:"id"`
	Login   string `json:"login"`
	IsAdmin bool   `json:"is_admin"`
}

// Page is the envelope of every rendered document.
type Page struct {
	User    *UserSummary            `json:"user"`
	Flashes []Flash                 `json:"flashes"`
	Form    string                  `json:"form,omitempty"`
	Errors  models.ValidationErrors `json:"errors,omitempty"`
	Data    any                     `json:"data,omitempty"`
}

// NewPage builds an envelope for p and consumes the pending flashes.
func NewPage(w http.ResponseWriter, r *http.Request, p auth.Principal) Page {
	page := Page{Flashes: PopFlashes(w, r)}
	if page.Flashes == nil {
		page.Flashes = []Flash{}
	}
	if p.IsAuthenticated() {
		page.User = &UserSummary{ID: p.UserID, Login: p.Login, IsAdmin: p.IsAdmin()}
	}
	return page
}

// Render sends page with the given status
func (v *View) Render(w http.ResponseWriter, status int, page Page) {
	v.renderJSON(w, status, page)
}

// RenderForm sends a form page with its field errors
func (v *View) RenderForm(w http.ResponseWriter, status int, page Page, form string, errs models.ValidationErrors) {
	page.Form = form
	page.Errors = errs
	v.renderJSON(w, status, page)
}

// RenderError sends a JSON error response
func (v *View) RenderError(w http.ResponseWriter, status int, message string) {
	v.renderJSON(w, status, map[string]string{
		"error": message,
	})
}

// RenderJSON sends an arbitrary JSON document
func (v *View) RenderJSON(w http.ResponseWriter, status int, payload any) {
	v.renderJSON(w, status, payload)
}

// Redirect queues flashes and sends a 302 to location
func (v *View) Redirect(w http.ResponseWriter, r *http.Request, location string, flashes ...Flash) {
	if len(flashes) > 0 {
		AddFlash(w, r, flashes...)
	}
	http.Redirect(w, r, location, http.StatusFound)
}

func (v *View) renderJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
