package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/user/tubeview/internal/utils"
)

// RefreshHeader 滑动续期后新 Token 通过该响应头下发
const RefreshHeader = "X-Refreshed-Token"

// Claims JWT 声明
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RequireAuth 必须登录中间件
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, userID, err := extractClaims(c, jwtSecret)
		if err != nil {
			utils.Unauthorized(c, "")
			return
		}
		setUser(c, claims, userID, jwtSecret)
		c.Next()
	}
}

// OptionalAuth 可选登录中间件（不强制要求登录）
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, userID, err := extractClaims(c, jwtSecret); err == nil {
			setUser(c, claims, userID, jwtSecret)
		}
		c.Next()
	}
}

// setUser 将用户信息存入上下文，并处理滑动续期
func setUser(c *gin.Context, claims *Claims, userID uuid.UUID, jwtSecret string) {
	c.Set("user_id", userID)
	c.Set("username", claims.Username)

	// 滑动续期逻辑：如果 Token 过期时间消耗超过一半，则刷新
	if shouldRefresh(claims) {
		expiry := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
		if newToken, err := GenerateToken(userID, claims.Username, jwtSecret, expiry); err == nil {
			c.Header(RefreshHeader, newToken)
		}
	}
}

// extractClaims 从 Authorization Header 或 Cookie 中提取 JWT Claims
func extractClaims(c *gin.Context, jwtSecret string) (*Claims, uuid.UUID, error) {
	var tokenString string

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	} else if cookie, err := c.Cookie("token"); err == nil {
		tokenString = cookie
	}

	if tokenString == "" {
		return nil, uuid.Nil, jwt.ErrTokenMalformed
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, uuid.Nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return nil, uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	return claims, userID, nil
}

// GetUserID 从上下文获取用户 ID（未登录返回 uuid.Nil）
func GetUserID(c *gin.Context) uuid.UUID {
	if userID, exists := c.Get("user_id"); exists {
		return userID.(uuid.UUID)
	}
	return uuid.Nil
}

// GenerateToken 生成 JWT Token
func GenerateToken(userID uuid.UUID, username, jwtSecret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID.String(),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// shouldRefresh 判断是否需要刷新 Token
// 逻辑：如果已经消耗了总有效期的 50% 以上，则建议刷新
func shouldRefresh(claims *Claims) bool {
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return false
	}

	totalDuration := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	elapsedDuration := time.Since(claims.IssuedAt.Time)

	return elapsedDuration > totalDuration/2
}
