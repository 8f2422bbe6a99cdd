package service

import (
	"errors"
	"strings"
	"time"

	"github.com/freightlane/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenInvalid 令牌无效
var ErrTokenInvalid = errors.New("无效的 token")

// ActorClaims 操作人令牌声明
type ActorClaims struct {
	ActorID uint   `json:"actor_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Actor 转换为操作人
func (c *ActorClaims) Actor() Actor {
	return Actor{ID: c.ActorID, Role: c.Role}
}

// TokenService 操作人令牌服务（生产环境由外部认证服务签发）
type TokenService struct {
	cfg config.JWTConfig
}

// NewTokenService 创建令牌服务
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{cfg: cfg}
}

// IssueToken 签发令牌
func (s *TokenService) IssueToken(actor Actor, ttl time.Duration) (string, time.Time, error) {
	if !actor.Valid() {
		return "", time.Time{}, ErrUnauthorized
	}
	if ttl <= 0 {
		hours := s.cfg.ExpireHours
		if hours <= 0 {
			hours = 24
		}
		ttl = time.Duration(hours) * time.Hour
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := ActorClaims{
		ActorID: actor.ID,
		Role:    actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken 解析并校验令牌
func (s *TokenService) ParseToken(tokenString string) (*ActorClaims, error) {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer := strings.TrimSpace(s.cfg.Issuer); issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	if !claims.Actor().Valid() {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
