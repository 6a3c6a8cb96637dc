package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/achufistov/shortypanel/internal/app/auth"
	"github.com/achufistov/shortypanel/internal/app/controllers"
	"github.com/achufistov/shortypanel/internal/app/models"
	"github.com/achufistov/shortypanel/internal/app/service"
	"github.com/achufistov/shortypanel/internal/app/storage"
	"github.com/achufistov/shortypanel/internal/app/views"
	"github.com/achufistov/shortypanel/internal/testutils"
)

// pageDoc mirrors views.Page with the payload left raw.
type pageDoc struct {
	User    *views.UserSummary      `json:"user"`
	Flashes []views.Flash           `json:"flashes"`
	Form    string                  `json:"form"`
	Errors  models.ValidationErrors `json:"errors"`
	Data    json.RawMessage         `json:"data"`
}

type listDoc[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PagesCount int `json:"pagesCount"`
}

type testEnv struct {
	router  chi.Router
	service *service.Service
	store   *storage.MemStorage
	admin   auth.Principal
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testutils.CreateTestConfigWithDefaults(t)
	store := storage.NewMemStorage()
	svc := service.NewService(store, cfg, zap.NewNop())
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	return &testEnv{
		router:  NewRouter(RouterConfig{Service: svc, TrustedSubnet: "10.0.0.0/8"}),
		service: svc,
		store:   store,
		admin:   auth.Principal{UserID: models.SystemUserID, Login: "admin", Role: models.RoleAdmin},
	}
}

// session returns a cookie authenticating p.
func (e *testEnv) session(t *testing.T, p auth.Principal) *http.Cookie {
	t.Helper()
	token, err := e.service.Tokens().Issue(p)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (e *testEnv) user(t *testing.T, login string) (models.User, *http.Cookie) {
	t.Helper()
	u := testutils.SeedUser(t, e.store, login, "password1", models.RoleUser)
	return u, e.session(t, auth.PrincipalFromUser(u))
}

func (e *testEnv) do(method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) pageDoc {
	t.Helper()
	var doc pageDoc
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}
	return doc
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestShortenAndRedirect(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodPost, "/url/", url.Values{"url": {"example.com/x"}})
	if rec.Code != http.StatusFound {
		t.Fatalf("POST /url/ status = %d, body = %s", rec.Code, rec.Body)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/url/created/") {
		t.Fatalf("Location = %q", loc)
	}
	code := strings.TrimPrefix(loc, "/url/created/")
	if len(code) != 5 {
		t.Errorf("code %q has length %d, want 5", code, len(code))
	}

	created := e.do(http.MethodGet, loc, nil, cookieNamed(rec, views.FlashCookie))
	if created.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d", loc, created.Code)
	}
	doc := decodePage(t, created)
	if len(doc.Flashes) != 1 || doc.Flashes[0].Content != controllers.MsgURLAdded {
		t.Errorf("flashes = %+v", doc.Flashes)
	}
	var confirmation controllers.CreatedURL
	if err := json.Unmarshal(doc.Data, &confirmation); err != nil {
		t.Fatal(err)
	}
	if confirmation.ShortURL != "http://localhost:8080/url/"+code || confirmation.URL != "http://example.com/x" {
		t.Errorf("confirmation = %+v", confirmation)
	}

	stored, err := e.store.GetURLByShort(context.Background(), code)
	if err != nil {
		t.Fatal(err)
	}
	if stored.UserID != models.SystemUserID {
		t.Errorf("anonymous URL owner = %d, want %d", stored.UserID, models.SystemUserID)
	}

	req := httptest.NewRequest(http.MethodGet, "/url/"+code, nil)
	req.Header.Set("X-Real-IP", "198.51.100.7")
	redirect := httptest.NewRecorder()
	e.router.ServeHTTP(redirect, req)
	if redirect.Code != http.StatusFound || redirect.Header().Get("Location") != "http://example.com/x" {
		t.Errorf("redirect = %d %q", redirect.Code, redirect.Header().Get("Location"))
	}

	visits, err := e.store.ListVisits(context.Background(), stored.ID, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(visits) != 1 || visits[0].VisitorIP != "198.51.100.7" {
		t.Errorf("visits = %+v", visits)
	}
}

func TestShorten_Invalid(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name string
		url  string
	}{
		{"Empty", ""},
		{"No dot", "localhost"},
		{"Leading dots", "..example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPost, "/url/", url.Values{"url": {tt.url}})
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			doc := decodePage(t, rec)
			if doc.Form != "shorten" || len(doc.Errors) == 0 || doc.Errors[0].Field != "url" {
				t.Errorf("page = %+v", doc)
			}
		})
	}
}

func TestShorten_JSONBody(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/url/", strings.NewReader(`{"url":"https://go.dev"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusFound {
		t.Errorf("status = %d, want 302", rec.Code)
	}
}

func TestRedirect_Unknown(t *testing.T) {
	e := newTestEnv(t)
	testutils.SeedURL(t, e.store, models.SystemUserID, "ab12c", "http://example.com/a")

	rec := e.do(http.MethodGet, "/url/zz000", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body map[string]string
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body["error"] != controllers.MsgCouldNotRedirect {
		t.Errorf("body = %v", body)
	}

	st, _ := e.store.Stats(context.Background())
	if st.Visits != 0 {
		t.Errorf("unknown code recorded %d visits", st.Visits)
	}
}

func TestDeleteURL(t *testing.T) {
	e := newTestEnv(t)
	alice, aliceCookie := e.user(t, "alice")
	_, bobCookie := e.user(t, "bobby")
	u := testutils.SeedURL(t, e.store, alice.ID, "alice", "http://example.com/alice")
	path := "/url/delete/" + strconv.FormatInt(u.ID, 10)

	t.Run("Anonymous sent to login", func(t *testing.T) {
		rec := e.do(http.MethodGet, path, nil)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/auth/login" {
			t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
		}
	})

	t.Run("Stranger refused", func(t *testing.T) {
		rec := e.do(http.MethodPost, path, url.Values{}, bobCookie)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/account/" {
			t.Errorf("got %d %q", rec.Code, rec.Header().Get("Location"))
		}
		if _, err := e.store.GetURLByID(context.Background(), u.ID); err != nil {
			t.Errorf("URL removed by a stranger: %v", err)
		}
	})

	t.Run("Owner sees confirmation", func(t *testing.T) {
		rec := e.do(http.MethodGet, path, nil, aliceCookie)
		if rec.Code != http.StatusOK || decodePage(t, rec).Form != "delete" {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("Owner deletes", func(t *testing.T) {
		rec := e.do(http.MethodPost, path, url.Values{}, aliceCookie)
		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d", rec.Code)
		}
		if _, err := e.store.GetURLByID(context.Background(), u.ID); err == nil {
			t.Error("URL still present after delete")
		}
	})

	t.Run("Unknown id", func(t *testing.T) {
		rec := e.do(http.MethodPost, "/url/delete/999", url.Values{}, aliceCookie)
		if rec.Code != http.StatusFound || cookieNamed(rec, views.FlashCookie) == nil {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestAccountPagination(t *testing.T) {
	e := newTestEnv(t)
	alice, cookie := e.user(t, "alice")
	for i := 0; i < 25; i++ {
		testutils.SeedURL(t, e.store, alice.ID, "c"+strconv.Itoa(1000+i), "http://example.com/"+strconv.Itoa(i))
	}

	tests := []struct {
		path      string
		wantPage  int
		wantItems int
	}{
		{"/account/", 1, 20},
		{"/account/2", 2, 5},
		{"/account/9", 1, 20},
		{"/account/abc", 1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := e.do(http.MethodGet, tt.path, nil, cookie)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			var list listDoc[models.URLStats]
			if err := json.Unmarshal(decodePage(t, rec).Data, &list); err != nil {
				t.Fatal(err)
			}
			if list.Page != tt.wantPage || list.PagesCount != 2 || len(list.Items) != tt.wantItems {
				t.Errorf("page=%d pages=%d items=%d", list.Page, list.PagesCount, len(list.Items))
			}
		})
	}
}

func TestAdminGate(t *testing.T) {
	e := newTestEnv(t)
	_, userCookie := e.user(t, "alice")

	rec := e.do(http.MethodGet, "/admin/", nil, userCookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Errorf("user got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = e.do(http.MethodGet, "/admin/", nil, e.session(t, e.admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin got %d", rec.Code)
	}
	var stats models.Stats
	if err := json.Unmarshal(decodePage(t, rec).Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Users != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAdminDropUser(t *testing.T) {
	e := newTestEnv(t)
	adminCookie := e.session(t, e.admin)
	bob, bobCookie := e.user(t, "bobby")
	for i := 0; i < 3; i++ {
		u := testutils.SeedURL(t, e.store, bob.ID, "bob0"+strconv.Itoa(i), "http://example.com/bob")
		testutils.SeedVisits(t, e.store, u.ID, 2)
	}

	rec := e.do(http.MethodPost, "/admin/drop_user/"+strconv.FormatInt(bob.ID, 10), url.Values{}, adminCookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/users/1" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, err := e.store.GetUserByID(context.Background(), bob.ID); err == nil {
		t.Error("user still present")
	}
	st, _ := e.store.Stats(context.Background())
	if st.URLs != 0 || st.Visits != 0 {
		t.Errorf("leftovers after cascade: %+v", st)
	}

	// the dropped user's session is still signed but owns nothing any more
	rec = e.do(http.MethodPost, "/url/", url.Values{"url": {"http://example.com/late"}}, bobCookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("shorten with dropped user's session = %d, want 404", rec.Code)
	}
	if n, _ := e.store.CountURLs(context.Background(), bob.ID); n != 0 {
		t.Errorf("dropped user got %d new urls", n)
	}

	rec = e.do(http.MethodPost, "/admin/drop_user/1", url.Values{}, adminCookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d", rec.Code)
	}
	next := e.do(http.MethodGet, "/admin/users/1", nil, adminCookie, cookieNamed(rec, views.FlashCookie))
	doc := decodePage(t, next)
	if len(doc.Flashes) != 1 || doc.Flashes[0].Content != controllers.MsgUserNotDeleted {
		t.Errorf("flashes = %+v", doc.Flashes)
	}
	if _, err := e.store.GetUserByID(context.Background(), 1); err != nil {
		t.Error("admin account was deleted")
	}
}

func TestAdminUsersListsStandardOnly(t *testing.T) {
	e := newTestEnv(t)
	for i := 0; i < 12; i++ {
		e.user(t, "user"+strconv.Itoa(10+i))
	}

	rec := e.do(http.MethodGet, "/admin/users/2", nil, e.session(t, e.admin))
	var list listDoc[models.User]
	if err := json.Unmarshal(decodePage(t, rec).Data, &list); err != nil {
		t.Fatal(err)
	}
	if list.Page != 2 || list.PagesCount != 2 || len(list.Items) != 2 {
		t.Errorf("page=%d pages=%d items=%d", list.Page, list.PagesCount, len(list.Items))
	}
	for _, u := range list.Items {
		if u.Role != models.RoleUser {
			t.Errorf("admin listed: %+v", u)
		}
	}
}

func TestAdminChangePassword(t *testing.T) {
	e := newTestEnv(t)
	adminCookie := e.session(t, e.admin)
	bob, _ := e.user(t, "bobby")
	path := "/admin/userpwd/" + strconv.FormatInt(bob.ID, 10)

	rec := e.do(http.MethodGet, path, nil, adminCookie)
	if rec.Code != http.StatusOK || decodePage(t, rec).Form != "password" {
		t.Fatalf("form status = %d", rec.Code)
	}

	rec = e.do(http.MethodPost, path, url.Values{"password": {"newpassword"}, "confirm": {"different1"}}, adminCookie)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("mismatch status = %d", rec.Code)
	}
	doc := decodePage(t, rec)
	if len(doc.Flashes) != 1 || doc.Flashes[0].Content != controllers.MsgFieldsMismatch {
		t.Errorf("flashes = %+v", doc.Flashes)
	}

	rec = e.do(http.MethodPost, path, url.Values{"password": {"newpassword"}, "confirm": {"newpassword"}}, adminCookie)
	if rec.Code != http.StatusFound {
		t.Fatalf("change status = %d", rec.Code)
	}
	if _, err := e.service.Login(context.Background(), models.LoginInput{Login: "bobby", Password: "newpassword"}); err != nil {
		t.Errorf("login with new password: %v", err)
	}

	rec = e.do(http.MethodGet, "/admin/userpwd/999", nil, adminCookie)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/users/1" {
		t.Errorf("unknown user got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestAdminPopularity(t *testing.T) {
	e := newTestEnv(t)
	adminCookie := e.session(t, e.admin)
	u := testutils.SeedURL(t, e.store, models.SystemUserID, "pop01", "http://example.com/pop")
	testutils.SeedVisits(t, e.store, u.ID, 12)

	rec := e.do(http.MethodGet, "/admin/popularity/"+strconv.FormatInt(u.ID, 10)+"/2", nil, adminCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var pop struct {
		URL    models.URL            `json:"url"`
		Visits listDoc[models.Visit] `json:"visits"`
	}
	if err := json.Unmarshal(decodePage(t, rec).Data, &pop); err != nil {
		t.Fatal(err)
	}
	if pop.URL.ShortURL != "pop01" || pop.Visits.Page != 2 || len(pop.Visits.Items) != 2 {
		t.Errorf("popularity = %+v", pop)
	}

	rec = e.do(http.MethodGet, "/admin/popularity/999/1", nil, adminCookie)
	if rec.Code != http.StatusFound {
		t.Errorf("unknown url status = %d", rec.Code)
	}
}

func TestAdminDeleteAnyURL(t *testing.T) {
	e := newTestEnv(t)
	alice, _ := e.user(t, "alice")
	u := testutils.SeedURL(t, e.store, alice.ID, "alic2", "http://example.com/a")

	rec := e.do(http.MethodPost, "/admin/delete/"+strconv.FormatInt(u.ID, 10), url.Values{}, e.session(t, e.admin))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/urls/1" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if _, err := e.store.GetURLByID(context.Background(), u.ID); err == nil {
		t.Error("URL still present")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestEnv(t)
	form := url.Values{"login": {"carol"}, "password": {"password1"}, "confirm": {"password1"}}

	rec := e.do(http.MethodPost, "/auth/register", form)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("register got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = e.do(http.MethodPost, "/auth/register", form)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}
	if errs := decodePage(t, rec).Errors; len(errs) != 1 || errs[0].Message != "Username already exists" {
		t.Errorf("errors = %+v", errs)
	}

	rec = e.do(http.MethodPost, "/auth/login", url.Values{"login": {"carol"}, "password": {"wrong-pass"}})
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/auth/login" {
		t.Errorf("bad login got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if cookieNamed(rec, auth.CookieName) != nil {
		t.Error("session cookie set on failed login")
	}

	rec = e.do(http.MethodPost, "/auth/login", url.Values{"login": {"carol"}, "password": {"password1"}})
	session := cookieNamed(rec, auth.CookieName)
	if rec.Code != http.StatusFound || session == nil {
		t.Fatalf("login got %d, cookie %v", rec.Code, session)
	}

	rec = e.do(http.MethodGet, "/", nil, session)
	doc := decodePage(t, rec)
	if doc.User == nil || doc.User.Login != "carol" || doc.User.IsAdmin {
		t.Errorf("index user = %+v", doc.User)
	}

	rec = e.do(http.MethodGet, "/auth/logout", nil, session)
	if c := cookieNamed(rec, auth.CookieName); rec.Code != http.StatusFound || c == nil || c.MaxAge >= 0 {
		t.Errorf("logout got %d, cookie %v", rec.Code, c)
	}
}

func TestOperationalEndpoints(t *testing.T) {
	e := newTestEnv(t)

	if rec := e.do(http.MethodGet, "/ping", nil); rec.Code != http.StatusOK {
		t.Errorf("ping status = %d", rec.Code)
	}

	rec := e.do(http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "shortener_http_requests_total") {
		t.Errorf("metrics status = %d", rec.Code)
	}

	tests := []struct {
		name   string
		remote string
		realIP string
		status int
	}{
		{"Trusted", "10.1.2.3:4000", "", http.StatusOK},
		{"Untrusted", "192.168.1.1:4000", "", http.StatusForbidden},
		{"Untrusted with forged header", "192.168.1.1:4000", "10.1.2.3", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/api/internal/stats", "/debug/pprof/"} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				req.RemoteAddr = tt.remote
				if tt.realIP != "" {
					req.Header.Set("X-Real-IP", tt.realIP)
				}
				rec := httptest.NewRecorder()
				e.router.ServeHTTP(rec, req)
				if rec.Code != tt.status {
					t.Errorf("%s status = %d, want %d", path, rec.Code, tt.status)
				}
			}
		})
	}

	if rec := e.do(http.MethodGet, "/nope/nope", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d", rec.Code)
	}
}
