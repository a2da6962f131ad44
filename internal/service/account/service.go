// Package account handles driver registration and login.
package account

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/voltgrid/evstation/internal/domain"
	"github.com/voltgrid/evstation/internal/ports"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

const minPasswordLen = 6

type Service struct {
	users     ports.UserRepository
	cache     ports.Cache
	jwtSecret []byte
	tokenTTL  time.Duration
	log       *zap.Logger
}

func NewService(users ports.UserRepository, cache ports.Cache, jwtSecret string, tokenTTL time.Duration, log *zap.Logger) ports.AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		users:     users,
		cache:     cache,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Register creates a user with one car. The user ID must be free; the check
// and insert are atomic in the repository, so concurrent registrations with
// the same ID cannot both succeed.
func (s *Service) Register(ctx context.Context, userID, password, carID string, capacityKWh float64) (*domain.User, error) {
	if !idPattern.MatchString(userID) {
		return nil, domain.E(domain.KindValidation, "invalid user_id")
	}
	if !idPattern.MatchString(carID) {
		return nil, domain.E(domain.KindValidation, "invalid car_id")
	}
	if len(password) < minPasswordLen {
		return nil, domain.E(domain.KindValidation, "password must be at least %d characters", minPasswordLen)
	}
	if capacityKWh <= 0 {
		return nil, domain.E(domain.KindValidation, "battery capacity must be > 0")
	}

	if existing, err := s.users.FindByCarID(ctx, carID); err != nil {
		return nil, fmt.Errorf("failed to look up car: %w", err)
	} else if existing != nil {
		return nil, domain.E(domain.KindConflict, "car %s is already registered", carID)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           userID,
		PasswordHash: string(hash),
		Car: domain.Car{
			ID:          carID,
			UserID:      userID,
			CapacityKWh: capacityKWh,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	ok, err := s.users.SaveIfAbsent(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to persist user: %w", err)
	}
	if !ok {
		return nil, domain.E(domain.KindConflict, "user %s already exists", userID)
	}

	s.log.Info("User registered",
		zap.String("user_id", userID),
		zap.String("car_id", carID),
	)
	return user, nil
}

// Login verifies credentials and issues a signed access token. The token is
// also cached so that ops surfaces can enumerate live sessions.
func (s *Service) Login(ctx context.Context, userID, password string) (*domain.User, string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, "", domain.E(domain.KindNotFound, "unknown user %s", userID)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", domain.E(domain.KindAuth, "invalid credentials")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign token: %w", err)
	}

	if err := s.cache.Set(ctx, "session:"+userID, token, s.tokenTTL); err != nil {
		s.log.Warn("Failed to cache login session", zap.Error(err))
	}

	s.log.Info("User logged in", zap.String("user_id", userID))
	return user, token, nil
}

func (s *Service) generateToken(user *domain.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID,
		"car": user.Car.ID,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}
