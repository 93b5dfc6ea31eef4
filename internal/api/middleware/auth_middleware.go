package middleware

import (
	"net/http"
	"strings"

	"parkease/internal/domain"
	"parkease/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	AuthorizationHeaderKey  = "Authorization"
	AuthorizationTypeBearer = "Bearer"
	PrincipalKey            = "principal"
)

type AuthMiddleware struct {
	authService *service.AuthService
}

func NewAuthMiddleware(authService *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate là middleware xác thực JWT: resolve token thành Principal
// rồi lưu vào context của Gin cho các handler phía sau.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeaderKey)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Thiếu authorization header"})
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 || !strings.EqualFold(fields[0], AuthorizationTypeBearer) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Định dạng authorization header không hợp lệ"})
			return
		}

		principal, err := m.authService.ValidateToken(fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc đã hết hạn"})
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// AuthorizeRole là middleware kiểm tra vai trò của principal.
func (m *AuthMiddleware) AuthorizeRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := PrincipalFrom(c)
		if principal.IsZero() {
			log.Warn().Msg("AuthorizeRole: không tìm thấy principal trong context (cần Authenticate() trước)")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Không có quyền truy cập"})
			return
		}

		for _, role := range requiredRoles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		log.Warn().Str("role", principal.Role).Strs("required", requiredRoles).Msg("AuthorizeRole: vai trò không phù hợp")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Không có quyền truy cập"})
	}
}

// PrincipalFrom lấy principal đã được Authenticate() lưu vào context.
// Trả về Principal rỗng khi chưa xác thực; service sẽ từ chối với
// ErrUnauthorized thay vì rơi về query không filter.
func PrincipalFrom(c *gin.Context) domain.Principal {
	val, exists := c.Get(PrincipalKey)
	if !exists {
		return domain.Principal{}
	}
	principal, ok := val.(domain.Principal)
	if !ok {
		return domain.Principal{}
	}
	return principal
}
