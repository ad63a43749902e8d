package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/config"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/domain/user"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/logger"
)

// Claims はアクセストークンに埋め込むクレーム
type Claims struct {
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     user.Role `json:"role"`
	jwt.RegisteredClaims
}

// AuthService は認証・ユーザー登録のユースケースを提供する
type AuthService struct {
	userRepo  user.Repository
	jwtSecret []byte
	jwtExpiry time.Duration
}

// NewAuthService は新しいAuthServiceを作成する
func NewAuthService(ur user.Repository, jwtCfg config.JWTConfig) *AuthService {
	return &AuthService{
		userRepo:  ur,
		jwtSecret: []byte(jwtCfg.Secret),
		jwtExpiry: jwtCfg.Expiry,
	}
}

// RegisterInput はユーザー登録の入力
type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

// Register は一般ユーザーを登録する
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	u := user.NewUser(input.Email, input.FullName, string(hash))
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login はメールアドレスとパスワードを検証しアクセストークンを発行する
// ユーザーの有無とパスワード不一致は区別せず ErrInvalidCredentials を返す
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return "", nil, user.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, user.ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// GetUser はIDからユーザーを取得する
func (s *AuthService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// EnsureAdminUser は初期管理者アカウントが存在しない場合に作成する
// 起動時に一度だけ呼び出される
func (s *AuthService) EnsureAdminUser(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		return nil
	}

	_, err := s.userRepo.GetByEmail(ctx, cfg.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}

	admin := user.NewUser(cfg.Email, cfg.FullName, string(hash))
	admin.Role = user.RoleAdmin
	if err := admin.Validate(); err != nil {
		return err
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		// 並行起動で先に作成された場合は成功扱い
		if errors.Is(err, user.ErrEmailAlreadyExists) {
			return nil
		}
		return err
	}

	logger.Info("初期管理者アカウントを作成しました", zap.String("email", cfg.Email))
	return nil
}

// issueToken はHS256署名のアクセストークンを発行する
func (s *AuthService) issueToken(u *user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ParseToken はアクセストークンを検証しクレームを返す
func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("予期しない署名方式です: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("無効なトークンです")
	}
	return claims, nil
}
