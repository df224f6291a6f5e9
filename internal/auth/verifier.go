package auth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/blues/propdao/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken   = errors.New("缺少身份令牌")
	ErrInvalidToken   = errors.New("身份令牌无效")
	ErrMissingSubject = errors.New("身份令牌缺少用户ID")
)

// Claims 本服务使用的身份声明，只包含实际用到的字段
type Claims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// Verifier 校验身份提供方签发的令牌
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// tokenClaims 身份提供方令牌中的声明
type tokenClaims struct {
	Email         string `json:"email,omitempty"`
	WalletAddress string `json:"wallet_address,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier 基于 JWT 的令牌校验，生产使用 ES256 公钥，开发可用 HS256 密钥
type JWTVerifier struct {
	publicKey *ecdsa.PublicKey
	secret    []byte
	parser    *jwt.Parser
}

// NewJWTVerifier 根据配置创建令牌校验器
func NewJWTVerifier(cfg config.AuthConfig) (*JWTVerifier, error) {
	v := &JWTVerifier{}
	methods := []string{}

	switch {
	case strings.TrimSpace(cfg.JWTPublicKey) != "":
		key, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.JWTPublicKey))
		if err != nil {
			return nil, fmt.Errorf("解析身份提供方公钥失败: %w", err)
		}
		v.publicKey = key
		methods = append(methods, jwt.SigningMethodES256.Alg())
	case cfg.JWTSecret != "":
		v.secret = []byte(cfg.JWTSecret)
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	default:
		return nil, errors.New("未配置身份提供方公钥或密钥")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

// Verify 校验令牌并提取声明，缺少 sub 时拒绝
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	parsed := &tokenClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, parsed, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if strings.TrimSpace(parsed.Subject) == "" {
		return nil, ErrMissingSubject
	}

	return &Claims{
		Subject:       parsed.Subject,
		Email:         parsed.Email,
		WalletAddress: parsed.WalletAddress,
	}, nil
}

func (v *JWTVerifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if v.publicKey != nil {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	}
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return v.secret, nil
}
