package identity

import (
	"errors"
	"strconv"
	"time"

	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Session is an issued bearer credential. ExpiresAt is a Unix timestamp in
// milliseconds, the unit the mobile clients expect.
type Session struct {
	Token     string
	ExpiresAt int64
}

// TokenService issues and validates signed session tokens for the phone and
// guest channels. Revocation is tracked per jti in the revoked_tokens table.
type TokenService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
}

func NewTokenService(db *gorm.DB, cfg *config.Config) *TokenService {
	return &TokenService{
		db:     db,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.JWTExpiry,
	}
}

// Issue signs a fresh session token for the user.
func (s *TokenService) Issue(user *models.User) (*Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &Session{Token: signed, ExpiresAt: expiresAt.UnixMilli()}, nil
}

func (s *TokenService) parse(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Authenticate resolves a raw session token to its user. Expired, malformed
// and blacklisted tokens yield INVALID_AUTH_TOKEN; a valid token for a
// vanished user yields ACCOUNT_NOT_FOUND.
func (s *TokenService) Authenticate(raw string) (*models.User, *apierr.Error) {
	claims, err := s.parse(raw)
	if err != nil {
		return nil, apierr.New(apierr.InvalidAuthToken).WithException(err.Error())
	}

	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, apierr.New(apierr.InvalidAuthToken)
	}

	var revoked int64
	if err := s.db.Model(&models.RevokedToken{}).Where("jti = ?", jti).Count(&revoked).Error; err != nil {
		return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}
	if revoked > 0 {
		return nil, apierr.New(apierr.InvalidAuthToken)
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, apierr.New(apierr.InvalidAuthToken)
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(apierr.AccountNotFound)
		}
		return nil, apierr.New(apierr.InternalServerError).WithException(err.Error())
	}

	return &user, nil
}

// Invalidate blacklists the token's jti until the token itself expires.
func (s *TokenService) Invalidate(raw string) error {
	claims, err := s.parse(raw)
	if err != nil {
		return err
	}

	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return err
	}

	userID, _ := strconv.ParseUint(claims.Subject, 10, 64)

	revoked := models.RevokedToken{
		JTI:       jti,
		UserID:    uint(userID),
		ExpiresAt: claims.ExpiresAt.Time,
	}
	return s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&revoked).Error
}
