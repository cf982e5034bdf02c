package auth

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var (
	hasLowercase = regexp.MustCompile(`[a-z]`)
	hasUppercase = regexp.MustCompile(`[A-Z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

type AuthControllerRoutes struct {
	Signup   string
	Signin   string
	Validate string
	Logout   string
	Profile  string
	Health   string
}

type AuthController struct {
	Logger   Logger
	Auth     *Authenticator
	Tokens   *TokenServiceImpl
	Sessions Sessions
	Users    Users
	Guard    *TokenGuard
	Limiter  RateLimiter
	Routes   *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Signup:   "/auth/signup",
			Signin:   "/auth/signin",
			Validate: "/auth/validate",
			Logout:   "/auth/logout",
			Profile:  "/auth/profile",
			Health:   "/health",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auth == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Sessions == nil {
		panic("Missing Sessions registry in auth controller...")
	}

	if c.Users == nil {
		panic("Missing Users repository in auth controller...")
	}

	if c.Guard == nil {
		c.Guard = NewTokenGuard(c.Tokens, c.Sessions).WithLogger(c.Logger)
	}

	if c.Limiter == nil {
		panic("Missing RateLimiter in auth controller...")
	}

	return c
}

func WithLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

func WithAuthenticator(auth *Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auth = auth
		return c
	}
}

func WithTokenService(tokens *TokenServiceImpl) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithSessions(sessions Sessions) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Sessions = sessions
		return c
	}
}

func WithUsers(users Users) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Users = users
		return c
	}
}

func WithRateLimiter(limiter RateLimiter) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Limiter = limiter
		return c
	}
}

// RegisterAuthRoutes mounts the auth endpoints. Request processing is an
// ordered pipeline: rate limit, then payload validation inside the
// handler, then credential work; protected routes run the guard first.
// Each stage short-circuits on failure.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	protected := controller.Guard.Protected()

	app.Post(controller.Routes.Signup, controller.RateLimit("signup"), controller.SignupPost)
	app.Post(controller.Routes.Signin, controller.RateLimit("signin"), controller.SigninPost)
	app.Get(controller.Routes.Validate, protected, controller.ValidateGet)
	app.Post(controller.Routes.Logout, protected, controller.LogoutPost)
	app.Get(controller.Routes.Profile, protected, controller.ProfileGet)
	app.Get(controller.Routes.Health, controller.HealthGet)
}

// SignupRequest payload
type SignupRequest struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 255)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 0),
			validation.Match(hasLowercase).Error("must contain at least one lowercase letter"),
			validation.Match(hasUppercase).Error("must contain at least one uppercase letter"),
			validation.Match(hasDigit).Error("must contain at least one number"),
		),
	)
}

// SigninRequest payload
type SigninRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SigninRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// RateLimit returns middleware admitting the request against the fixed
// window for the given scope, keyed by client address.
func (a *AuthController) RateLimit(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := a.Limiter.Admit(c.Context(), scope, c.IP()); err != nil {
			if errors.Is(err, ErrRateLimited) {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": ErrRateLimited.Error(),
				})
			}
			a.Logger.Error("rate limiter error", "error", err)
			return fiber.ErrInternalServerError
		}
		return c.Next()
	}
}

func (a *AuthController) SignupPost(c *fiber.Ctx) error {
	payload := new(SignupRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("signup parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": FormatValidationErrorToMap(err),
		})
	}

	user, err := a.Auth.Register(c.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": ErrDuplicateEmail.Error(),
			})
		}
		a.Logger.Error("signup register error", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user.Principal(),
	})
}

func (a *AuthController) SigninPost(c *fiber.Ctx) error {
	payload := new(SigninRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("signin parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to parse request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"details": FormatValidationErrorToMap(err),
		})
	}

	principal, err := a.Auth.Verify(c.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": ErrInvalidCredentials.Error(),
			})
		}
		a.Logger.Error("signin verify error", "error", err)
		return fiber.ErrInternalServerError
	}

	token, expiresAt, err := a.Tokens.Generate(principal)
	if err != nil {
		a.Logger.Error("signin token generate error", "error", err)
		return fiber.ErrInternalServerError
	}

	userID, err := uuid.Parse(principal.ID)
	if err != nil {
		a.Logger.Error("signin principal id parse error", "error", err)
		return fiber.ErrInternalServerError
	}

	if _, err := a.Sessions.Register(c.Context(), userID, token, expiresAt); err != nil {
		a.Logger.Error("signin session register error", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
		"user":    principal,
	})
}

func (a *AuthController) ValidateGet(c *fiber.Ctx) error {
	principal, ok := PrincipalFromCtx(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	return c.JSON(fiber.Map{
		"message": "Token is valid",
		"user":    principal,
	})
}

func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	token, ok := TokenFromCtx(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	if err := a.Sessions.Revoke(c.Context(), token); err != nil {
		a.Logger.Error("logout revoke error", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}

func (a *AuthController) ProfileGet(c *fiber.Ctx) error {
	principal, ok := PrincipalFromCtx(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	userID, err := uuid.Parse(principal.ID)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	user, err := a.Users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		a.Logger.Error("profile fetch error", "error", err)
		return fiber.ErrInternalServerError
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":         user.ID,
			"name":       user.Name,
			"email":      user.Email,
			"created_at": user.CreatedAt,
			"last_login": user.LastLoginAt,
		},
	})
}

func (a *AuthController) HealthGet(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field to message map for API responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			out[field] = ferr.Error()
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
