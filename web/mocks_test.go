package web_test

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"strings"
	"sync"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"

	"github.com/codewaveai/go-session"
	"github.com/codewaveai/go-session/provider/local"
)

type renderCall struct {
	Name string
	Bind any
}

type redirectCall struct {
	Path   string
	Status []int
}

type jsonCall struct {
	Code int
	Val  any
}

// fakeContext is an in-memory router.Context for handler tests.
type fakeContext struct {
	ctx         context.Context
	method      string
	originalURL string
	referer     string
	body        []byte
	headers     map[string]string
	cookies     map[string]string
	params      map[string]string
	queries     map[string]string
	locals      map[any]any

	setCookies []*router.Cookie
	renders    []renderCall
	redirects  []redirectCall
	jsonCalls  []jsonCall
	statusCode int
	noContent  int
	nextCalled bool
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		ctx:     context.Background(),
		method:  "GET",
		headers: map[string]string{},
		cookies: map[string]string{},
		params:  map[string]string{},
		queries: map[string]string{},
		locals:  map[any]any{},
	}
}

func (c *fakeContext) withJSONBody(v any) *fakeContext {
	raw, _ := json.Marshal(v)
	c.body = raw
	c.method = "POST"
	return c
}

func (c *fakeContext) lastRender() renderCall {
	return c.renders[len(c.renders)-1]
}

func (c *fakeContext) lastRedirect() redirectCall {
	return c.redirects[len(c.redirects)-1]
}

func (c *fakeContext) cookieValue(name string) string {
	for i := len(c.setCookies) - 1; i >= 0; i-- {
		if c.setCookies[i].Name == name {
			return c.setCookies[i].Value
		}
	}
	return ""
}

func (c *fakeContext) Next() error {
	c.nextCalled = true
	return nil
}

func (c *fakeContext) Context() context.Context             { return c.ctx }
func (c *fakeContext) SetContext(ctx context.Context)       { c.ctx = ctx }
func (c *fakeContext) Path() string                         { return c.originalURL }
func (c *fakeContext) Method() string                       { return c.method }
func (c *fakeContext) Body() []byte                         { return c.body }
func (c *fakeContext) SendString(s string) error            { return nil }
func (c *fakeContext) Send(b []byte) error                  { return nil }
func (c *fakeContext) SendStatus(code int) error            { c.statusCode = code; return nil }
func (c *fakeContext) SendStream(r io.Reader) error         { return nil }
func (c *fakeContext) OriginalURL() string                  { return c.originalURL }
func (c *fakeContext) Referer() string                      { return c.referer }
func (c *fakeContext) IP() string                           { return "127.0.0.1" }
func (c *fakeContext) RouteName() string                    { return "" }
func (c *fakeContext) RouteParams() map[string]string       { return c.params }
func (c *fakeContext) Set(key string, val any)              { c.locals[key] = val }
func (c *fakeContext) SetHeader(k, v string) router.Context { return c }

func (c *fakeContext) FormFile(key string) (*multipart.FileHeader, error) {
	return nil, io.EOF
}

func (c *fakeContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *fakeContext) Status(code int) router.Context {
	c.statusCode = code
	return c
}

func (c *fakeContext) JSON(code int, val any) error {
	c.jsonCalls = append(c.jsonCalls, jsonCall{Code: code, Val: val})
	return nil
}

func (c *fakeContext) NoContent(code int) error {
	c.noContent = code
	return nil
}

func (c *fakeContext) Render(name string, bind any, layout ...string) error {
	c.renders = append(c.renders, renderCall{Name: name, Bind: bind})
	return nil
}

func (c *fakeContext) Redirect(path string, status ...int) error {
	c.redirects = append(c.redirects, redirectCall{Path: path, Status: status})
	return nil
}

func (c *fakeContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	return c.Redirect(name, status...)
}

func (c *fakeContext) RedirectBack(fallback string, status ...int) error {
	return c.Redirect(fallback, status...)
}

func (c *fakeContext) Header(key string) string {
	return c.headers[key]
}

func (c *fakeContext) Get(key string, defaultValue any) any {
	if v, ok := c.locals[key]; ok {
		return v
	}
	return defaultValue
}

func (c *fakeContext) GetBool(key string, def bool) bool { return def }
func (c *fakeContext) GetInt(key string, def int) int    { return def }

func (c *fakeContext) GetString(key string, def string) string {
	if v, ok := c.locals[key].(string); ok {
		return v
	}
	return def
}

func (c *fakeContext) Bind(i any) error {
	if len(c.body) == 0 {
		return nil
	}
	return json.Unmarshal(c.body, i)
}

func (c *fakeContext) CookieParser(i any) error { return nil }

func (c *fakeContext) Cookie(cookie *router.Cookie) {
	c.setCookies = append(c.setCookies, cookie)
	if cookie.Value == "" {
		delete(c.cookies, cookie.Name)
		return
	}
	c.cookies[cookie.Name] = cookie.Value
}

func (c *fakeContext) Cookies(key string, defaultValue ...string) string {
	if v, ok := c.cookies[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *fakeContext) Param(key string, defaultValue ...string) string {
	if v, ok := c.params[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *fakeContext) ParamsInt(key string, def int) int { return def }

func (c *fakeContext) Query(key string, defaultValue ...string) string {
	if v, ok := c.queries[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (c *fakeContext) QueryValues(key string) []string {
	if v, ok := c.queries[key]; ok {
		return []string{v}
	}
	return nil
}

func (c *fakeContext) QueryInt(key string, def int) int { return def }

func (c *fakeContext) Queries() map[string]string { return c.queries }

func (c *fakeContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		c.locals[key] = value[0]
		return nil
	}
	return c.locals[key]
}

func (c *fakeContext) LocalsMerge(key any, value map[string]any) map[string]any {
	merged, _ := c.locals[key].(map[string]any)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range value {
		merged[k] = v
	}
	c.locals[key] = merged
	return merged
}

// memAccounts is an in-memory local.AccountStore.
type memAccounts struct {
	mu      sync.Mutex
	byEmail map[string]*local.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byEmail: map[string]*local.Account{}}
}

func (m *memAccounts) seed(email, password string) *local.Account {
	hash, err := local.HashPassword(password)
	if err != nil {
		panic(err)
	}
	account := &local.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
	}
	m.mu.Lock()
	m.byEmail[strings.ToLower(email)] = account
	m.mu.Unlock()
	return account
}

func (m *memAccounts) GetByEmail(ctx context.Context, email string) (*local.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return account, nil
}

func (m *memAccounts) Create(ctx context.Context, record *local.Account, criteria ...repository.InsertCriteria) (*local.Account, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.mu.Lock()
	m.byEmail[strings.ToLower(record.Email)] = record
	m.mu.Unlock()
	return record, nil
}

func (m *memAccounts) TrackAttemptedLogin(ctx context.Context, account *local.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account.LoginAttempts++
	return nil
}

func (m *memAccounts) TrackSuccessfulLogin(ctx context.Context, account *local.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account.LoginAttempts = 0
	return nil
}

func (m *memAccounts) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.byEmail {
		if account.ID == id {
			account.PasswordHash = passwordHash
			return nil
		}
	}
	return repository.NewRecordNotFound()
}

// memProfiles is an in-memory session.RecordStore.
type memProfiles struct {
	mu      sync.Mutex
	records map[uuid.UUID]*session.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{records: map[uuid.UUID]*session.Profile{}}
}

func (m *memProfiles) put(profile *session.Profile) {
	m.mu.Lock()
	m.records[profile.ID] = profile
	m.mu.Unlock()
}

func (m *memProfiles) GetByID(ctx context.Context, id uuid.UUID) (*session.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.records[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return profile, nil
}

func (m *memProfiles) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return repository.NewRecordNotFound()
	}
	return nil
}

func (m *memProfiles) Insert(ctx context.Context, profile *session.Profile) (*session.Profile, error) {
	m.put(profile)
	return profile, nil
}
