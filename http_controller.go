package auth

import (
	"fmt"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// RegisterAuthRoutes mounts the authentication API:
//
//	POST /register              create account, returns user + token
//	POST /login                 verify credentials, returns token
//	GET  /me                    bearer protected, returns current user
//	POST /logout                bearer protected, acknowledgment
//	POST /password-reset        start a reset session
//	GET  /password-reset/:uuid  verify a reset session
//	POST /password-reset/:uuid  finalize a reset session
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(
		controller.Config,
		controller.Auther.MakeClientRouteAuthErrorHandler(),
	)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Get(controller.Routes.Me, controller.Me, protected).
		SetName("me.get")

	app.Post(controller.Routes.Logout, controller.LogOut, protected).
		SetName("sign-out.post")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")

	app.Get(fmt.Sprintf("%s/:uuid", controller.Routes.PasswordReset), controller.PasswordResetVerify).
		SetName("pwd-reset-do.get")
	app.Post(fmt.Sprintf("%s/:uuid", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("pwd-reset-do.post")
}

type AuthControllerRoutes struct {
	Login         string
	Logout        string
	Register      string
	Me            string
	PasswordReset string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Tokens       TokenService
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Config       Config
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:         "/login",
			Logout:        "/logout",
			Register:      "/register",
			Me:            "/me",
			PasswordReset: "/password-reset",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

// WithControllerLogger overrides the controller logger.
func WithControllerLogger(l Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

// WithControllerRepo sets the repository manager.
func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithControllerAuther sets the HTTP authenticator.
func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithControllerTokens sets the token service used on registration.
func WithControllerTokens(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

// WithControllerConfig sets the auth configuration.
func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

// WithControllerDebug toggles payload dumps.
func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// UserRecord is the serializable user shape. It carries no hash field at
// all, so a response cannot leak credentials even by accident.
type UserRecord struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// NewUserRecord builds the response DTO from a stored user.
func NewUserRecord(user *User) UserRecord {
	return UserRecord{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": map[string]string{"body": "failed to parse request body"},
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.loginError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"token": token,
	})
}

// loginError keeps the credential failure generic. Only the cool down
// and issuance faults get their own status.
func (a *AuthController) loginError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.TextCode {
		case TextCodeTooManyAttempts:
			return ctx.JSON(http.StatusTooManyRequests, map[string]string{
				"error": richErr.Message,
				"code":  richErr.TextCode,
			})
		case TextCodeTokenIssuance:
			return ctx.JSON(router.StatusInternalServerError, map[string]string{
				"error": "unable to complete login",
				"code":  richErr.TextCode,
			})
		}
	}

	return ctx.JSON(router.StatusBadRequest, map[string]string{
		"error": ErrInvalidCredentials.Message,
		"code":  TextCodeInvalidCredentials,
	})
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.JSON(router.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}

// Me returns the identity the middleware resolved for the request token.
func (a *AuthController) Me(ctx router.Context) error {
	raw := ctx.Locals(CurrentUserKey)
	user, ok := raw.(*User)
	if !ok || user == nil {
		return a.Auther.MakeClientRouteAuthErrorHandler()(ctx, ErrIdentityNotFound)
	}

	return ctx.JSON(router.StatusOK, NewUserRecord(user))
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload shape before any handler runs
func (r RegistrationCreatePayload) Validate() error {
	return r.toMessage().validate()
}

func (r RegistrationCreatePayload) toMessage() RegisterUserMessage {
	return RegisterUserMessage{
		Name:     r.Name,
		Email:    r.Email,
		Password: r.Password,
	}
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": map[string]string{"body": "failed to parse request body"},
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	var created *User
	req := payload.toMessage()
	req.OnResponse = func(resp *RegisterUserResponse) {
		created = resp.User
	}

	registerUser := NewRegisterUserHandler(a.Repo)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		if IsDuplicateEmailError(err) {
			return ctx.JSON(router.StatusBadRequest, map[string]any{
				"errors": map[string]string{"email": ErrDuplicateEmail.Message},
			})
		}

		a.Logger.Error("register user execute", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "unable to complete registration",
		})
	}

	if created == nil {
		a.Logger.Error("register user handler returned no record")
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "unable to complete registration",
		})
	}

	token, err := a.Tokens.Generate(NewIdentityFromUser(created))
	if err != nil {
		a.Logger.Error("register user token issuance", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "unable to issue authentication token",
			"code":  TextCodeTokenIssuance,
		})
	}

	return ctx.JSON(http.StatusCreated, map[string]any{
		"user":  NewUserRecord(created),
		"token": token,
	})
}

const (
	stageKey   = "stage"
	sessionKey = "session"
	emailKey   = "email"
)

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
	Stage string `form:"stage" json:"stage"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Stage,
			validation.Required,
			validation.In(
				ResetInit,
			),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

// PasswordResetPost starts a reset session. The response is identical
// whether or not the email exists.
func (a *AuthController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": map[string]string{"body": "failed to parse request body"},
		})
	}

	if payload.Stage == "" {
		payload.Stage = ResetInit
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Stage: payload.Stage,
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset initialize", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "unable to start password reset",
		})
	}

	if a.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("================")
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		stageKey: AccountVerification,
		emailKey: payload.Email,
	})
}

// PasswordResetVerify reports the state of a reset session.
func (a *AuthController) PasswordResetVerify(ctx router.Context) error {
	sessionID := ctx.Param("uuid", "")

	var resp *AccountVerificationResponse
	input := AccountVerificationMesage{
		Session: sessionID,
		OnResponse: func(a *AccountVerificationResponse) {
			resp = a
		},
	}

	accountVerify := NewAccountVerificationHandler(a.Repo)

	if err := accountVerify.Execute(ctx.Context(), input); err != nil {
		a.Logger.Error("password reset verify", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "unable to verify password reset session",
		})
	}

	currentStage := ChangingPassword
	if resp.Expired || !resp.Found {
		currentStage = ResetUnknown
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		sessionKey: sessionID,
		stageKey:   currentStage,
		"found":    resp.Found,
		"expired":  resp.Expired,
	})
}

// PasswordResetVerifyPayload holds values for password reset
type PasswordResetVerifyPayload struct {
	Stage           string `form:"stage" json:"stage"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordResetVerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Stage,
			validation.Required,
			validation.In(
				ChangingPassword,
			),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) PasswordResetExecute(ctx router.Context) error {
	sessionID := ctx.Param("uuid")

	payload := new(PasswordResetVerifyPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": map[string]string{"body": "failed to parse request body"},
		})
	}

	if payload.Stage == "" {
		payload.Stage = ChangingPassword
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrorToMap(err),
		})
	}

	input := FinalizePasswordResetMessage{
		Session:  sessionID,
		Password: payload.Password,
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), input); err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			switch richErr.Category {
			case goerrors.CategoryNotFound, goerrors.CategoryConflict, goerrors.CategoryValidation:
				return ctx.JSON(router.StatusBadRequest, map[string]string{
					"error": richErr.Message,
					"code":  richErr.TextCode,
				})
			}
		}

		a.Logger.Error("password reset finalize", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]string{
			"error": "unable to finalize password reset",
		})
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		stageKey:   ChangeFinalized,
		sessionKey: sessionID,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return goerrors.New("values must match", goerrors.CategoryValidation)
		}
		return nil
	}
}

func defaultErrHandler(c router.Context, err error) error {
	return c.JSON(router.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}
