package student

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edumanage/backend/core"
)

// QR check-in: a teacher generates a short-lived signed session for their
// class; the token is rendered as a QR code by the frontend, and students
// redeem it to be marked present.

var (
	checkInSalt = []byte("edumanage.core.student.checkin")
	NowFunc     = time.Now // mockable

	// errors
	errBadCheckInToken     = errors.New("invalid check-in token")
	errCheckInTokenExpired = errors.New("check-in token expired")
)

const checkInSessionTTL = 15 * time.Minute

type CheckInSession struct {
	ID        string    `json:"id"`
	Class     string    `json:"class"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"` // UTC
}

func newCheckInSession(conf *core.Config, class string) (CheckInSession, error) {
	id := uuid.New().String()
	expiresAt := NowFunc().UTC().Add(checkInSessionTTL)

	payload := fmt.Sprintf("%s|%s|%d", id, class, expiresAt.Unix())
	token := base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + signCheckIn(conf, payload)

	return CheckInSession{
		ID:        id,
		Class:     class,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// verifyCheckInToken validates the token's signature and expiry and returns
// the class it was issued for.
func verifyCheckInToken(conf *core.Config, token string) (string, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) < 2 {
		return "", errBadCheckInToken
	}
	data, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", errBadCheckInToken
	}
	payload := string(data)

	if subtle.ConstantTimeCompare([]byte(signCheckIn(conf, payload)), []byte(parts[1])) == 0 {
		return "", errBadCheckInToken
	}

	fields := strings.Split(payload, "|")
	if len(fields) != 3 {
		return "", errBadCheckInToken
	}
	exp, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", errBadCheckInToken
	}
	if NowFunc().UTC().After(time.Unix(exp, 0)) {
		return "", errCheckInTokenExpired
	}
	return fields[1], nil
}

func signCheckIn(conf *core.Config, payload string) string {
	key := sha256.Sum256(append(checkInSalt, conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])
	h.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
