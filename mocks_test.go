package auth_test

import (
	"context"
	"database/sql"

	"github.com/golang-jwt/jwt/v5"
	auth "github.com/goliatone/go-auth-api"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// testLogger is a noop logger for handlers under test
type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// testConfig implements auth.Config with plain fields
type testConfig struct {
	SigningKey      string
	SigningMethod   string
	ContextKey      string
	TokenExpiration int
	TokenLookup     string
	AuthScheme      string
	Issuer          string
	Audience        []string
}

func newTestConfig() *testConfig {
	return &testConfig{
		SigningKey:      "test-signing-key",
		SigningMethod:   "HS256",
		ContextKey:      "user",
		TokenExpiration: 24,
		TokenLookup:     "header:Authorization",
		AuthScheme:      "Bearer",
		Issuer:          "test-issuer",
		Audience:        []string{"test-audience"},
	}
}

func (c *testConfig) GetSigningKey() string    { return c.SigningKey }
func (c *testConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *testConfig) GetContextKey() string    { return c.ContextKey }
func (c *testConfig) GetTokenExpiration() int  { return c.TokenExpiration }
func (c *testConfig) GetTokenLookup() string   { return c.TokenLookup }
func (c *testConfig) GetAuthScheme() string    { return c.AuthScheme }
func (c *testConfig) GetIssuer() string        { return c.Issuer }
func (c *testConfig) GetAudience() []string    { return c.Audience }

// MockIdentity implements auth.Identity
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements auth.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockUserTracker implements auth.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockIdentityProvider implements auth.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, identifier, password string) (auth.Identity, error) {
	args := m.Called(ctx, identifier, password)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (auth.Identity, error) {
	args := m.Called(ctx, identifier)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// MockTokenService implements auth.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(identity auth.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) SignClaims(claims jwt.Claims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (*auth.JWTClaims, error) {
	args := m.Called(tokenString)
	claims, _ := args.Get(0).(*auth.JWTClaims)
	return claims, args.Error(1)
}

// MockAuthenticator implements auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, identifier, password string) (string, error) {
	args := m.Called(ctx, identifier, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) Impersonate(ctx context.Context, identifier string) (string, error) {
	args := m.Called(ctx, identifier)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticator) SessionFromToken(token string) (auth.Session, error) {
	args := m.Called(token)
	session, _ := args.Get(0).(auth.Session)
	return session, args.Error(1)
}

func (m *MockAuthenticator) IdentityFromSession(ctx context.Context, session auth.Session) (auth.Identity, error) {
	args := m.Called(ctx, session)
	identity, _ := args.Get(0).(auth.Identity)
	return identity, args.Error(1)
}

// MockHTTPAuthenticator implements auth.HTTPAuthenticator
type MockHTTPAuthenticator struct {
	mock.Mock
	ErrorHandler func(c router.Context, err error) error
}

func (m *MockHTTPAuthenticator) ProtectedRoute(cfg auth.Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	m.Called(cfg, errorHandler)
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return hf
	}
}

func (m *MockHTTPAuthenticator) Login(c router.Context, payload auth.LoginPayload) (string, error) {
	args := m.Called(c, payload)
	return args.String(0), args.Error(1)
}

func (m *MockHTTPAuthenticator) Logout(c router.Context) {
	m.Called(c)
}

func (m *MockHTTPAuthenticator) MakeClientRouteAuthErrorHandler() func(c router.Context, err error) error {
	if m.ErrorHandler != nil {
		return m.ErrorHandler
	}
	return func(c router.Context, err error) error {
		return c.JSON(router.StatusUnauthorized, map[string]string{"error": err.Error()})
	}
}

// MockLoginPayload implements auth.LoginPayload
type MockLoginPayload struct {
	Identifier string
	Password   string
}

func (m MockLoginPayload) GetIdentifier() string {
	return m.Identifier
}

func (m MockLoginPayload) GetPassword() string {
	return m.Password
}

// MockUsers implements auth.Users
type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) Register(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	record, _ := args.Get(0).(*auth.User)
	return record, args.Error(1)
}

func (m *MockUsers) RegisterTx(ctx context.Context, tx bun.IDB, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, tx, user)
	record, _ := args.Get(0).(*auth.User)
	return record, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	args := m.Called(ctx, record)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, record)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*auth.User, error) {
	args := m.Called(ctx, tx, identifier)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockUsers) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, user *auth.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUsers) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *auth.User) error {
	args := m.Called(ctx, tx, user)
	return args.Error(0)
}

func (m *MockUsers) ResetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *MockUsers) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockPasswordResets implements auth.PasswordResets
type MockPasswordResets struct {
	mock.Mock
}

func (m *MockPasswordResets) CreateTx(ctx context.Context, tx bun.IDB, record *auth.PasswordReset, criteria ...repository.InsertCriteria) (*auth.PasswordReset, error) {
	args := m.Called(ctx, tx, record)
	reset, _ := args.Get(0).(*auth.PasswordReset)
	return reset, args.Error(1)
}

func (m *MockPasswordResets) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*auth.PasswordReset, error) {
	args := m.Called(ctx, id)
	reset, _ := args.Get(0).(*auth.PasswordReset)
	return reset, args.Error(1)
}

func (m *MockPasswordResets) UpdateTx(ctx context.Context, tx bun.IDB, record *auth.PasswordReset, criteria ...repository.UpdateCriteria) (*auth.PasswordReset, error) {
	args := m.Called(ctx, tx, record)
	reset, _ := args.Get(0).(*auth.PasswordReset)
	return reset, args.Error(1)
}

// MockRepositoryManager implements auth.RepositoryManager. RunInTx calls
// the closure with a zero transaction so handlers run end to end.
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx records the expectation and then executes the closure with a
// zero transaction. A non nil Return short circuits the closure so tests
// can simulate transaction level failures.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() auth.Users {
	args := m.Called()
	return args.Get(0).(auth.Users)
}

func (m *MockRepositoryManager) PasswordResets() auth.PasswordResets {
	args := m.Called()
	return args.Get(0).(auth.PasswordResets)
}

// MockContext mocks router.Context. Locals, Context, and JSON keep real
// state so tests can assert what handlers attached and rendered.
type MockContext struct {
	mock.Mock
	NextCalled bool
	NextErr    error
	LocalsM    map[any]any
	ParamsM    map[string]string
	QueriesM   map[string]string
	CookiesM   map[string]string
	JSONCode   int
	JSONBody   any
	StatusCode int
	URL        string
	stdCtx     context.Context
}

func NewMockContext() *MockContext {
	return &MockContext{
		LocalsM:  map[any]any{},
		ParamsM:  map[string]string{},
		QueriesM: map[string]string{},
		CookiesM: map[string]string{},
		URL:      "/",
	}
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return m.NextErr
}

func (m *MockContext) Context() context.Context {
	if m.stdCtx == nil {
		return context.Background()
	}
	return m.stdCtx
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.stdCtx = ctx
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.StatusCode = code
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	m.JSONCode = code
	m.JSONBody = val
	return nil
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if val, ok := m.CookiesM[key]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if val, ok := m.ParamsM[key]; ok {
		return val
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	if val, ok := m.QueriesM[key]; ok {
		return val
	}
	return defaultValue
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	return m.QueriesM
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if m.LocalsM == nil {
		m.LocalsM = map[any]any{}
	}
	if len(value) > 0 {
		m.LocalsM[key] = value[0]
		return value[0]
	}
	return m.LocalsM[key]
}

func (m *MockContext) OriginalURL() string {
	return m.URL
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
