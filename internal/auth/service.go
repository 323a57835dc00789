package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 12 * time.Hour

var (
	ErrInvalidAccessKey = errors.New("invalid access key")
	ErrNotConfigured    = errors.New("token issuing is not configured")
)

// Issuer hands out access tokens to the device owner in exchange for the
// access key whose bcrypt hash is configured.
type Issuer struct {
	secret  []byte
	keyHash []byte
	now     func() time.Time
}

type Claims struct {
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

type TokenRequest struct {
	AccessKey string `json:"access_key"`
	DeviceID  string `json:"device_id"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func NewIssuer(secret, accessKeyHash string) *Issuer {
	return &Issuer{
		secret:  []byte(secret),
		keyHash: []byte(accessKeyHash),
		now:     time.Now,
	}
}

func (i *Issuer) Issue(req TokenRequest) (TokenResponse, error) {
	if len(i.keyHash) == 0 {
		return TokenResponse{}, ErrNotConfigured
	}
	if err := bcrypt.CompareHashAndPassword(i.keyHash, []byte(req.AccessKey)); err != nil {
		return TokenResponse{}, ErrInvalidAccessKey
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = "default"
	}
	access, err := i.signToken(deviceID, accessTokenTTL)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
	}, nil
}

func (i *Issuer) Validate(token string) (*Claims, error) {
	return parseToken(token, i.secret)
}

func (i *Issuer) signToken(deviceID string, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

func parseToken(token string, secret []byte) (*Claims, error) {
	parsed, err := parseClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("token invalid")
	}
	return claims, nil
}

var parseClaimsFn = jwt.ParseWithClaims
