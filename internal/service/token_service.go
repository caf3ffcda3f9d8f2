package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/greenstay/hotelenergy/internal/models"
	"github.com/greenstay/hotelenergy/internal/tokens"
)

// TokenService issues and validates the access/refresh token pair.
// Access token verification is purely cryptographic; only refresh flows
// touch the refresh-token table.
type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *TokenService) IssueAccess(user *models.User) (string, time.Time, error) {
	signed, claims, err := tokens.Sign(user.Username, user.Role, tokens.KindAccess, s.AccessTTL, s.JWTSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// IssueRefresh signs a refresh token and persists its record. The stored
// token column is a sha256 of the signed string.
func (s *TokenService) IssueRefresh(ctx context.Context, user *models.User) (string, time.Time, error) {
	signed, claims, err := tokens.Sign(user.Username, user.Role, tokens.KindRefresh, s.RefreshTTL, s.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	record := models.RefreshToken{
		JTI:       claims.ID,
		Token:     tokens.Sha256Hex(signed),
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt.Time.Unix(),
	}
	if err := s.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (s *TokenService) IssuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, accessExp, err := s.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.IssueRefresh(ctx, user)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *TokenService) VerifyAccess(raw string) (*tokens.Claims, error) {
	return tokens.Parse(raw, tokens.KindAccess, s.JWTSecret)
}

// VerifyRefresh parses raw as a refresh token. With distinct secrets a
// wrong-kind token fails the signature check before the kind claim is
// ever read, so a token that verifies as an access token is reported as
// ErrWrongKind rather than invalid.
func (s *TokenService) VerifyRefresh(raw string) (*tokens.Claims, error) {
	claims, err := tokens.Parse(raw, tokens.KindRefresh, s.RefreshSecret)
	if err == nil {
		return claims, nil
	}
	if errors.Is(err, tokens.ErrInvalidToken) {
		if _, accessErr := tokens.Parse(raw, tokens.KindAccess, s.JWTSecret); accessErr == nil {
			return nil, tokens.ErrWrongKind
		}
	}
	return nil, err
}

// Refresh exchanges a valid, unrevoked refresh token for a new access
// token. The role is re-read from the user table so a role change takes
// effect on the next refresh. The refresh token itself is not rotated.
func (s *TokenService) Refresh(ctx context.Context, raw string) (string, time.Time, error) {
	claims, err := s.VerifyRefresh(raw)
	if err != nil {
		return "", time.Time{}, err
	}

	var record models.RefreshToken
	if err := s.DB.WithContext(ctx).Where("jti = ?", claims.ID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, tokens.ErrTokenExpired
		}
		return "", time.Time{}, err
	}
	if record.Revoked {
		return "", time.Time{}, tokens.ErrTokenRevoked
	}
	if time.Now().Unix() > record.ExpiresAt {
		return "", time.Time{}, tokens.ErrTokenExpired
	}

	var user models.User
	if err := s.DB.WithContext(ctx).Where("id = ?", record.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, tokens.ErrTokenRevoked
		}
		return "", time.Time{}, err
	}

	return s.IssueAccess(&user)
}

// Revoke marks the record of the presented refresh token revoked.
// Revoking an already revoked or unknown token is a no-op.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	return s.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", tokens.Sha256Hex(raw)).
		Update("revoked", true).Error
}
