package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/model"
	appErr "github.com/xxxsen/docchat/internal/pkg/errors"
	"github.com/xxxsen/docchat/internal/pkg/jwt"
	"github.com/xxxsen/docchat/internal/pkg/password"
)

type AuthService struct {
	users         UserStore
	jwtSecret     []byte
	jwtTTL        time.Duration
	allowRegister bool
}

func NewAuthService(users UserStore, jwtSecret []byte, jwtTTL time.Duration, allowRegister bool) *AuthService {
	return &AuthService{
		users:         users,
		jwtSecret:     jwtSecret,
		jwtTTL:        jwtTTL,
		allowRegister: allowRegister,
	}
}

func (s *AuthService) Register(ctx context.Context, email, plain string) (*model.User, error) {
	if !s.allowRegister {
		return nil, appErr.ErrForbidden
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, appErr.ErrInvalid
	}
	if len(plain) < 6 {
		return nil, appErr.ErrInvalid
	}
	hashed, err := password.Hash(plain)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:             newID(),
		Email:          email,
		HashedPassword: hashed,
		Ctime:          time.Now().Unix(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, plain string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return "", appErr.ErrUnauthorized
		}
		return "", err
	}
	if err := password.Compare(user.HashedPassword, plain); err != nil {
		return "", appErr.ErrUnauthorized
	}
	return jwt.GenerateToken(user.ID, user.Email, s.jwtSecret, s.jwtTTL)
}

// CurrentUser resolves the account behind a validated token. A not-found
// user means the token outlived the account; callers treat it as
// unauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
