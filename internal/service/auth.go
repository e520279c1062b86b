package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/tripwise/backend/internal/domain"
	"github.com/tripwise/backend/internal/repo"
)

// usernamePattern matches letters, digits and @/./+/-/_ only.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}@.+\-_]+$`)

// Registration is the input to AuthService.Register.
type Registration struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,max=250,email"`
	Password string `json:"password" validate:"required"`
}

// Credentials is the input to AuthService.Login.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is a successful login: the driver and their new session.
type LoginResult struct {
	Driver  domain.Driver
	Token   string
	Session domain.Session
}

// AuthService registers drivers and authenticates them.
type AuthService struct {
	drivers  repo.DriverRepo
	sessions *SessionIssuer
	validate *validator.Validate
	cost     int
	now      func() time.Time

	// dummyHash is compared against when the username is unknown, so a failed
	// lookup costs the same bcrypt work as a wrong password.
	dummyHash []byte
}

// NewAuthService constructs an AuthService. cost is the bcrypt work factor;
// production passes bcrypt.DefaultCost, tests bcrypt.MinCost.
func NewAuthService(drivers repo.DriverRepo, sessions *SessionIssuer, cost int) *AuthService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})

	dummy, _ := bcrypt.GenerateFromPassword([]byte("tripwise-unknown-driver"), cost)

	return &AuthService{
		drivers:   drivers,
		sessions:  sessions,
		validate:  v,
		cost:      cost,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register validates in, hashes the password and stores a new driver.
// Every problem found is returned together as domain.FieldErrors, including
// a username or email that is already taken.
func (s *AuthService) Register(ctx context.Context, in Registration) (domain.Driver, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	fieldErrs := s.structErrors(in)
	if in.Password != "" {
		// Only values that passed their own rules are compared against the
		// password, which keeps the comparison bounded by the field limits.
		var attrs []passwordAttribute
		if _, bad := fieldErrs["username"]; !bad {
			attrs = append(attrs, passwordAttribute{label: "username", value: in.Username})
		}
		if _, bad := fieldErrs["email"]; !bad {
			attrs = append(attrs, passwordAttribute{label: "email address", value: in.Email})
		}
		for _, msg := range checkPassword(in.Password, attrs...) {
			fieldErrs.Add("password", msg)
		}
	}
	if len(fieldErrs) > 0 {
		return domain.Driver{}, fmt.Errorf("service.AuthService.Register: %w", fieldErrs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("service.AuthService.Register: hash: %w", err)
	}

	created, err := s.drivers.Create(ctx, domain.Driver{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
	})
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			fe := domain.FieldErrors{}
			fe.Add(conflict.Field, conflictMessage(conflict.Field))
			return domain.Driver{}, fmt.Errorf("service.AuthService.Register: %w", fe)
		}
		return domain.Driver{}, fmt.Errorf("service.AuthService.Register: %w", err)
	}
	return created, nil
}

// Login checks the credentials and opens a session.
// Unknown usernames, wrong passwords and inactive accounts all return
// domain.ErrInvalidCredentials so callers cannot tell them apart.
func (s *AuthService) Login(ctx context.Context, in Credentials) (LoginResult, error) {
	if fe := s.structErrors(in); len(fe) > 0 {
		return LoginResult{}, fmt.Errorf("service.AuthService.Login: %w", fe)
	}

	d, err := s.drivers.GetByUsername(ctx, in.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
			return LoginResult{}, domain.ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(d.PasswordHash), []byte(in.Password)); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	if !d.IsActive {
		return LoginResult{}, domain.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.drivers.TouchLastLogin(ctx, d.ID, now); err != nil {
		return LoginResult{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	d.LastLogin = &now

	token, session, err := s.sessions.Issue(d)
	if err != nil {
		return LoginResult{}, fmt.Errorf("service.AuthService.Login: %w", err)
	}
	return LoginResult{Driver: d, Token: token, Session: session}, nil
}

// Current returns the driver that owns session.
// A session whose driver no longer exists is treated as unauthenticated.
func (s *AuthService) Current(ctx context.Context, session domain.Session) (domain.Driver, error) {
	d, err := s.drivers.GetByID(ctx, session.DriverID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Driver{}, domain.ErrUnauthenticated
		}
		return domain.Driver{}, fmt.Errorf("service.AuthService.Current: %w", err)
	}
	return d, nil
}

// VerifySession validates a session token.
func (s *AuthService) VerifySession(token string) (domain.Session, error) {
	return s.sessions.Verify(token)
}

// structErrors runs the validator tags on v and converts failures into
// user-facing field messages keyed by JSON name.
func (s *AuthService) structErrors(v any) domain.FieldErrors {
	fe := domain.FieldErrors{}
	err := s.validate.Struct(v)
	if err == nil {
		return fe
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("non_field_errors", err.Error())
		return fe
	}
	for _, e := range verrs {
		fe.Add(e.Field(), tagMessage(e))
	}
	return fe
}

func tagMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + e.Param() + " characters."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	default:
		return "Invalid value."
	}
}

func conflictMessage(field string) string {
	switch field {
	case "username":
		return "A user with that username already exists."
	case "email":
		return "A user with that email already exists."
	default:
		return "This value is already in use."
	}
}

// normalizeEmail trims the address and lowercases its domain part.
// The local part is left alone since some mail servers treat it case-sensitively.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}
