package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkease/internal/domain"
	"parkease/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Email của tài khoản demo được seed sẵn; không cho phép đăng ký lại.
var demoEmails = []string{
	"demo.owner@parkease.app",
	"demo.customer@parkease.app",
}

func IsDemoEmail(email string) bool {
	lower := strings.ToLower(email)
	for _, e := range demoEmails {
		if lower == e {
			return true
		}
	}
	return false
}

type AuthService struct {
	userRepo           repository.UserRepository
	jwtSecret          string
	jwtExpirationHours time.Duration
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpHours time.Duration) *AuthService {
	return &AuthService{
		userRepo:           userRepo,
		jwtSecret:          jwtSecret,
		jwtExpirationHours: jwtExpHours,
	}
}

// EnsureDemoAccounts seed 2 tài khoản demo (owner + customer) nếu chưa có.
// Idempotent, gọi mỗi lần khởi động.
func (s *AuthService) EnsureDemoAccounts(ctx context.Context, password string) error {
	for _, email := range demoEmails {
		_, err := s.userRepo.FindByEmail(ctx, email)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("lỗi khi kiểm tra tài khoản demo: %w", err)
		}

		role := domain.RoleCustomer
		name := "Demo Customer"
		if strings.Contains(email, "owner") {
			role = domain.RoleOwner
			name = "Demo Owner"
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("lỗi hash mật khẩu demo: %w", err)
		}
		_, err = s.userRepo.Create(ctx, &domain.User{
			Name:     name,
			Email:    email,
			Password: string(hashedPassword),
			Role:     role,
			IsDemo:   true,
		})
		if err != nil && !errors.Is(err, repository.ErrDuplicateEntry) {
			return fmt.Errorf("lỗi khi tạo tài khoản demo %s: %w", email, err)
		}
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterUserDTO) (*domain.User, error) {
	if IsDemoEmail(dto.Email) {
		return nil, fmt.Errorf("%w: không thể đăng ký bằng email demo", ErrValidation)
	}

	role := dto.Role
	if role != domain.RoleOwner && role != domain.RoleCustomer {
		role = domain.RoleCustomer
	}

	// Kiểm tra email đã tồn tại chưa
	existingUser, err := s.userRepo.FindByEmail(ctx, dto.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi khi kiểm tra người dùng: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("lỗi hash mật khẩu: %w", err)
	}

	user := &domain.User{
		Name:     dto.Name,
		Email:    strings.ToLower(dto.Email),
		Password: string(hashedPassword),
		Role:     role,
	}

	createdUser, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("lỗi khi tạo người dùng: %w", err)
	}
	createdUser.Password = "" // Không trả về password hash
	return createdUser, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginUserDTO) (*domain.AuthResponseDTO, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(dto.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lỗi khi tìm người dùng: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(dto.Password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	expirationTime := time.Now().Add(s.jwtExpirationHours)
	claims := jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", user.ID),
		"exp":   expirationTime.Unix(),
		"iat":   time.Now().Unix(),
		"role":  user.Role,
		"email": user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("lỗi tạo token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:  tokenString,
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		IsDemo: user.IsDemo,
	}, nil
}

// ValidateToken dùng cho middleware: resolve JWT thành principal.
func (s *AuthService) ValidateToken(tokenString string) (domain.Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("phương thức ký không mong muốn: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return domain.Principal{}, fmt.Errorf("%w: token có định dạng sai", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, fmt.Errorf("%w: token đã hết hạn", ErrTokenInvalid)
		}
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return domain.Principal{}, ErrTokenInvalid
	}

	sub, okSub := claims["sub"].(string)
	role, okRole := claims["role"].(string)
	if !okSub || !okRole {
		return domain.Principal{}, fmt.Errorf("%w: thiếu thông tin người dùng trong token", ErrTokenInvalid)
	}
	var userID int
	if _, err := fmt.Sscanf(sub, "%d", &userID); err != nil || userID <= 0 {
		return domain.Principal{}, fmt.Errorf("%w: subject không hợp lệ", ErrTokenInvalid)
	}
	return domain.Principal{ID: userID, Role: role}, nil
}
