package controllers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/middleware"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/service"
	"github.com/achufistov/shortypanel/internal/app/views"
)

// Flash messages of the login and registration pages.
const (
	MsgRegistered         = "New user added. Now you can log in"
	MsgBadCredentials     = "Bad credentials."
	MsgLoggedOut          = "You have been logged out."
	MsgRegistrationFailed = "Registration failed"
)

// AuthController handles login, logout and registration.
type AuthController struct {
	service *service.Service
	view    *views.View
	logger  *zap.Logger
}

// NewAuthController creates a new AuthController instance
func NewAuthController(svc *service.Service, view *views.View, logger *zap.Logger) *AuthController {
	return &AuthController{service: svc, view: view, logger: logger}
}

// HandleLoginForm renders the login form. Signed in users go back to the index.
func (c *AuthController) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	if p.IsAuthenticated() {
		c.view.Redirect(w, r, "/")
		return
	}
	c.view.RenderForm(w, http.StatusOK, views.NewPage(w, r, p), "login", nil)
}

// HandleLogin checks credentials and sets the session cookie
func (c *AuthController) HandleLogin(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())

	in, err := decodeInput[models.LoginInput](r)
	if err != nil {
		c.view.RenderForm(w, http.StatusUnprocessableEntity, views.NewPage(w, r, p), "login",
			models.ValidationErrors{{Field: "login", Message: "Invalid request body"}})
		return
	}

	resp, err := c.service.Login(r.Context(), in)
	if verrs, ok := models.IsValidation(err); ok {
		c.view.RenderForm(w, http.StatusUnprocessableEntity, views.NewPage(w, r, p), "login", verrs)
		return
	}
	if err != nil {
		if !errors.Is(err, auth.ErrBadCredentials) {
			c.logger.Error("login failed", zap.String("login", in.Login), zap.Error(err))
		}
		c.view.Redirect(w, r, "/auth/login", views.Danger(MsgBadCredentials))
		return
	}

	middleware.SetSessionCookie(w, c.service.Tokens(), resp.Token)
	c.view.Redirect(w, r, "/")
}

// HandleLogout expires the session cookie
func (c *AuthController) HandleLogout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w)
	c.view.Redirect(w, r, "/", views.Success(MsgLoggedOut))
}

// HandleRegisterForm renders the registration form
func (c *AuthController) HandleRegisterForm(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())
	c.view.RenderForm(w, http.StatusOK, views.NewPage(w, r, p), "register", nil)
}

// HandleRegister creates a standard account
func (c *AuthController) HandleRegister(w http.ResponseWriter, r *http.Request) {
	p := auth.PrincipalFrom(r.Context())

	in, err := decodeInput[models.RegisterInput](r)
	if err != nil {
		c.view.RenderForm(w, http.StatusUnprocessableEntity, views.NewPage(w, r, p), "register",
			models.ValidationErrors{{Field: "login", Message: "Invalid request body"}})
		return
	}

	_, err = c.service.Register(r.Context(), in)
	if verrs, ok := models.IsValidation(err); ok {
		c.view.RenderForm(w, http.StatusUnprocessableEntity, views.NewPage(w, r, p), "register", verrs)
		return
	}
	if err != nil {
		c.logger.Error("register failed", zap.Error(err))
		c.view.RenderError(w, http.StatusNotFound, MsgRegistrationFailed)
		return
	}

	c.view.Redirect(w, r, "/auth/login", views.Success(MsgRegistered))
}
