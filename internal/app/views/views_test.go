package views

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/models"
)

// carryCookies copies the cookies set on rec into a follow-up request.
func carryCookies(rec *httptest.ResponseRecorder, req *http.Request) {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
}

func TestFlash_RoundTrip(t *testing.T) {
	first := httptest.NewRecorder()
	AddFlash(first, httptest.NewRequest(http.MethodPost, "/url/", nil), Success("URL added."))

	second := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(first, second)

	rec := httptest.NewRecorder()
	flashes := PopFlashes(rec, second)
	if len(flashes) != 1 || flashes[0] != (Flash{Type: FlashSuccess, Content: "URL added."}) {
		t.Fatalf("PopFlashes = %+v", flashes)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == FlashCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("flash cookie not cleared after pop")
	}
}

func TestFlash_Accumulates(t *testing.T) {
	first := httptest.NewRecorder()
	AddFlash(first, httptest.NewRequest(http.MethodGet, "/", nil), Danger("one"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(first, req)
	second := httptest.NewRecorder()
	AddFlash(second, req, Danger("two"))

	final := httptest.NewRequest(http.MethodGet, "/", nil)
	carryCookies(second, final)
	flashes := PopFlashes(httptest.NewRecorder(), final)
	if len(flashes) != 2 || flashes[0].Content != "one" || flashes[1].Content != "two" {
		t.Errorf("flashes = %+v", flashes)
	}
}

func TestFlash_Garbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: FlashCookie, Value: "%%%not-base64"})
	if flashes := PopFlashes(httptest.NewRecorder(), req); len(flashes) != 0 {
		t.Errorf("garbage cookie produced flashes: %+v", flashes)
	}
}

func TestView_RenderForm(t *testing.T) {
	v := NewView()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/url/", nil)

	page := NewPage(rec, req, auth.Principal{UserID: 3, Login: "alice", Role: models.RoleUser})
	v.RenderForm(rec, http.StatusUnprocessableEntity, page, "shorten", models.ValidationErrors{{Field: "url", Message: "bad"}})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got Page
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Form != "shorten" || len(got.Errors) != 1 || got.User == nil || got.User.Login != "alice" || got.User.IsAdmin {
		t.Errorf("decoded page = %+v", got)
	}
}

func TestView_Redirect(t *testing.T) {
	v := NewView()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)

	v.Redirect(rec, req, "/auth/login", Success("New user added. Now you can log in"))

	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth/login" {
		t.Errorf("Location = %q", loc)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Errorf("expected flash cookie")
	}
}
