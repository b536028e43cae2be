package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// userContextKey gin context 中存放目前使用者的鍵
const userContextKey = "current_user"

// User 通過驗證的目前使用者
type User struct {
	UserID   uint
	Username string
}

// Claims JWT 內容；sub 為使用者 ID
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueToken 以 HS256 簽發使用者 token
func IssueToken(secret, issuer string, user User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.UserID), 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken 驗證 token 並取出使用者
func ParseToken(secret, raw string) (User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return User{}, err
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return User{}, errors.New("token subject is not a user id")
	}
	return User{UserID: uint(id), Username: claims.Username}, nil
}

// Auth 驗證 Bearer token；required 為 false 時沒有 token 也放行，但帶了無效 token 仍回 401
func Auth(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			if required {
				common.WriteError(c, common.ErrUnauthorized)
				return
			}
			c.Next()
			return
		}

		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			common.WriteError(c, common.ErrUnauthorized.WithMessage("Authorization header must use the Bearer scheme"))
			return
		}

		user, err := ParseToken(secret, raw)
		if err != nil {
			common.LogDebug("Invalid token",
				zap.Error(err),
				zap.String("request_id", common.RequestID(c)),
			)
			common.WriteError(c, common.ErrUnauthorized.Wrap(err))
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser 取出目前使用者
func CurrentUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return User{}, false
	}
	user, ok := v.(User)
	return user, ok
}
