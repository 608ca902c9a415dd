package webapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456:TEST-TOKEN"

// signInitData builds init data signed the way Telegram signs it.
func signInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+fields[k])
	}

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secretMac.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func testAuthenticator() *Authenticator {
	a := NewAuthenticator(testBotToken, "test-secret")
	a.now = func() time.Time { return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC) }
	return a
}

func TestVerifyInitData(t *testing.T) {
	a := testAuthenticator()
	freshAuthDate := fmt.Sprintf("%d", a.now().Add(-time.Hour).Unix())

	t.Run("ValidData", func(t *testing.T) {
		initData := signInitData(t, testBotToken, map[string]string{
			"auth_date": freshAuthDate,
			"query_id":  "AAE1",
			"user":      `{"id":42,"first_name":"Ana","username":"ana"}`,
		})

		u, err := a.VerifyInitData(initData)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if u.ID != 42 || u.FirstName != "Ana" {
			t.Errorf("Expected user 42/Ana, got %+v", u)
		}
	})

	t.Run("WrongBotToken", func(t *testing.T) {
		initData := signInitData(t, "999:OTHER-TOKEN", map[string]string{
			"auth_date": freshAuthDate,
			"user":      `{"id":42,"first_name":"Ana"}`,
		})

		if _, err := a.VerifyInitData(initData); !errors.Is(err, ErrInvalidInitData) {
			t.Errorf("Expected ErrInvalidInitData, got %v", err)
		}
	})

	t.Run("TamperedField", func(t *testing.T) {
		initData := signInitData(t, testBotToken, map[string]string{
			"auth_date": freshAuthDate,
			"user":      `{"id":42,"first_name":"Ana"}`,
		})
		tampered := strings.Replace(initData, "42", "43", 1)

		if _, err := a.VerifyInitData(tampered); !errors.Is(err, ErrInvalidInitData) {
			t.Errorf("Expected ErrInvalidInitData, got %v", err)
		}
	})

	t.Run("ExpiredAuthDate", func(t *testing.T) {
		old := fmt.Sprintf("%d", a.now().Add(-48*time.Hour).Unix())
		initData := signInitData(t, testBotToken, map[string]string{
			"auth_date": old,
			"user":      `{"id":42,"first_name":"Ana"}`,
		})

		if _, err := a.VerifyInitData(initData); !errors.Is(err, ErrInvalidInitData) {
			t.Errorf("Expected ErrInvalidInitData, got %v", err)
		}
	})

	t.Run("MissingHash", func(t *testing.T) {
		if _, err := a.VerifyInitData("auth_date=1&user=%7B%22id%22%3A42%7D"); !errors.Is(err, ErrInvalidInitData) {
			t.Errorf("Expected ErrInvalidInitData, got %v", err)
		}
	})
}

func TestTokenRoundTrip(t *testing.T) {
	a := testAuthenticator()

	token, err := a.IssueToken(42)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	id, err := a.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if id != 42 {
		t.Errorf("Expected id 42, got %d", id)
	}

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewAuthenticator(testBotToken, "different-secret")
		other.now = a.now
		if _, err := other.VerifyToken(token); err == nil {
			t.Error("Expected verification to fail with a different secret")
		}
	})

	t.Run("Expired", func(t *testing.T) {
		later := NewAuthenticator(testBotToken, "test-secret")
		later.now = func() time.Time { return a.now().Add(48 * time.Hour) }
		if _, err := later.VerifyToken(token); err == nil {
			t.Error("Expected verification to fail after expiry")
		}
	})

	t.Run("Garbage", func(t *testing.T) {
		if _, err := a.VerifyToken("not.a.token"); err == nil {
			t.Error("Expected verification to fail for garbage input")
		}
	})
}
