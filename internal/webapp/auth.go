package webapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidInitData is returned when Telegram init data fails verification.
var ErrInvalidInitData = errors.New("invalid telegram init data")

// initDataMaxAge rejects init data older than this.
const initDataMaxAge = 24 * time.Hour

// tokenTTL is the lifetime of issued session tokens.
const tokenTTL = 24 * time.Hour

// WebAppUser is the Telegram user carried inside init data.
type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Authenticator verifies Telegram Mini App init data and issues session
// tokens for subsequent API calls.
type Authenticator struct {
	botToken  string
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(botToken, jwtSecret string) *Authenticator {
	return &Authenticator{
		botToken:  botToken,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

// VerifyInitData checks the signature and freshness of raw init data (the
// query-string Telegram hands to the Mini App) and returns the embedded user.
func (a *Authenticator) VerifyInitData(initData string) (*WebAppUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed query", ErrInvalidInitData)
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, fmt.Errorf("%w: missing hash", ErrInvalidInitData)
	}
	values.Del("hash")

	// Telegram signs the sorted key=value lines with a key derived from the
	// bot token
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+values.Get(k))
	}
	checkString := strings.Join(lines, "\n")

	secret := hmacSHA256([]byte("WebAppData"), []byte(a.botToken))
	want := hex.EncodeToString(hmacSHA256(secret, []byte(checkString)))
	if !hmac.Equal([]byte(want), []byte(gotHash)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidInitData)
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: missing auth_date", ErrInvalidInitData)
	}
	if a.now().Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return nil, fmt.Errorf("%w: expired", ErrInvalidInitData)
	}

	var u WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &u); err != nil || u.ID == 0 {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidInitData)
	}
	return &u, nil
}

func hmacSHA256(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

// IssueToken mints a signed session token for a verified user.
func (a *Authenticator) IssueToken(telegramID int64) (string, error) {
	now := a.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(telegramID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token and returns the telegram id it was
// issued for.
func (a *Authenticator) VerifyToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.jwtSecret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return a.now() }))
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, errors.New("invalid token: missing subject")
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return id, nil
}
