package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/timezone"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

var tracer = otel.Tracer("services/auth")

const tokenLifetime = 7 * 24 * time.Hour

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrAccountDisabled    = errors.New("user account is disabled")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

type Config struct {
	// Secret signs access tokens. AdminKey guards the /api/admin surface.
	Secret   string `json:"secret"`
	AdminKey string `json:"admin_key"`
}

type Service struct {
	qry    *db.Queries
	secret []byte
}

func NewService(database *sql.DB, config Config) Service {
	return Service{
		qry:    db.New(database),
		secret: []byte(config.Secret),
	}
}

func normalizeEmail(email string) string {
	return strings.Trim(strings.ToLower(email), " \t\n")
}

// Profile is the public view of a user row.
type Profile struct {
	ID                 int64  `json:"id"`
	Email              string `json:"email"`
	DisplayName        string `json:"display_name"`
	IsPremium          bool   `json:"is_premium"`
	SubscriptionStatus string `json:"subscription_status"`
	ReputationScore    int64  `json:"reputation_score"`
}

func ProfileFromUser(user db.User) Profile {
	return Profile{
		ID:                 user.ID,
		Email:              user.Email.String,
		DisplayName:        user.DisplayName.String,
		IsPremium:          IsPremium(user),
		SubscriptionStatus: user.SubscriptionStatus,
		ReputationScore:    user.ReputationScore,
	}
}

// IsPremium reports whether the user's subscription is active and unexpired.
func IsPremium(user db.User) bool {
	if user.SubscriptionStatus != "active" {
		return false
	}
	if user.SubscriptionEndsAt.Valid {
		endsAt, err := time.Parse(time.RFC3339, user.SubscriptionEndsAt.String)
		if err == nil && endsAt.Before(time.Now().UTC()) {
			return false
		}
	}
	return true
}

func (s Service) Register(ctx context.Context, email, password, displayName string) (db.User, error) {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	email = normalizeEmail(email)
	span.SetAttributes(attribute.String("email", email))

	_, err := s.qry.GetUserByEmail(ctx, sql.NullString{String: email, Valid: true})
	if err == nil {
		span.SetStatus(codes.Error, "email already registered")
		return db.User{}, ErrEmailTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return db.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to hash password")
		return db.User{}, err
	}
	if displayName == "" {
		displayName, _, _ = strings.Cut(email, "@")
	}

	user, err := s.qry.CreateUser(ctx, db.CreateUserParams{
		Email:          sql.NullString{String: email, Valid: true},
		DisplayName:    sql.NullString{String: displayName, Valid: true},
		HashedPassword: sql.NullString{String: string(hash), Valid: true},
		IsAnonymous:    false,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create user")
		return db.User{}, err
	}
	return user, nil
}

func (s Service) Login(ctx context.Context, email, password string) (db.User, string, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	email = normalizeEmail(email)
	span.SetAttributes(attribute.String("email", email))

	user, err := s.qry.GetUserByEmail(ctx, sql.NullString{String: email, Valid: true})
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "unknown email")
		return db.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return db.User{}, "", err
	}
	if !user.HashedPassword.Valid {
		span.SetStatus(codes.Error, "account has no password")
		return db.User{}, "", ErrInvalidCredentials
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.HashedPassword.String), []byte(password))
	if err != nil {
		span.SetStatus(codes.Error, "password mismatch")
		return db.User{}, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		span.SetStatus(codes.Error, "account disabled")
		return db.User{}, "", ErrAccountDisabled
	}

	token, err := s.IssueToken(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to sign token")
		return db.User{}, "", err
	}
	return user, token, nil
}

// CreateGuest creates an anonymous account with a generated display name
// so devices can submit prices before registering.
func (s Service) CreateGuest(ctx context.Context) (db.User, string, error) {
	ctx, span := tracer.Start(ctx, "CreateGuest")
	defer span.End()

	suffix, err := random.String(6)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate display name")
		return db.User{}, "", err
	}
	user, err := s.qry.CreateUser(ctx, db.CreateUserParams{
		DisplayName: sql.NullString{String: fmt.Sprintf("shopper-%s", strings.ToLower(suffix)), Valid: true},
		IsAnonymous: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create guest user")
		return db.User{}, "", err
	}
	token, err := s.IssueToken(user)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to sign token")
		return db.User{}, "", err
	}
	return user, token, nil
}

func (s Service) UpdateDisplayName(ctx context.Context, userID int64, displayName string) (db.User, error) {
	ctx, span := tracer.Start(ctx, "UpdateDisplayName")
	defer span.End()

	err := s.qry.UpdateUserDisplayName(ctx, db.UpdateUserDisplayNameParams{
		DisplayName: sql.NullString{String: displayName, Valid: displayName != ""},
		ID:          userID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return db.User{}, err
	}
	return s.qry.GetUser(ctx, userID)
}

// IssueToken signs a 7-day HS256 access token with the user id as subject.
func (s Service) IssueToken(user db.User) (string, error) {
	now := timezone.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(user.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken parses an access token and loads the user it refers to.
func (s Service) VerifyToken(ctx context.Context, token string) (db.User, error) {
	ctx, span := tracer.Start(ctx, "VerifyToken")
	defer span.End()

	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		span.SetStatus(codes.Error, "token rejected")
		return db.User{}, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		span.SetStatus(codes.Error, "missing subject claim")
		return db.User{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		span.SetStatus(codes.Error, "malformed subject claim")
		return db.User{}, ErrInvalidToken
	}

	user, err := s.qry.GetUser(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "token references missing user")
		return db.User{}, ErrInvalidToken
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return db.User{}, err
	}
	return user, nil
}
