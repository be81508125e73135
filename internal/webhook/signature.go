package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader carries "t=<unix seconds>,v1=<hex hmac-sha256>". The MAC covers
// the timestamp, a dot and the body so a captured delivery cannot be replayed
// later with a fresh timestamp.
const SignatureHeader = "X-Experiments-Signature"

var (
	ErrMalformedSignature = errors.New("webhook: malformed signature header")
	ErrSignatureMismatch  = errors.New("webhook: signature mismatch")
	ErrSignatureExpired   = errors.New("webhook: signature timestamp outside tolerance")
)

// Sign returns the signature header value for payload sent at ts.
func Sign(secret string, ts time.Time, payload []byte) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	return "t=" + unix + ",v1=" + mac(secret, unix, payload)
}

// Verify checks header against payload. A tolerance of zero skips the age check.
func Verify(secret, header string, payload []byte, tolerance time.Duration, now time.Time) error {
	var unix, sig string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrMalformedSignature
		}
		switch k {
		case "t":
			unix = v
		case "v1":
			sig = v
		}
	}
	if unix == "" || sig == "" {
		return ErrMalformedSignature
	}
	sec, err := strconv.ParseInt(unix, 10, 64)
	if err != nil {
		return ErrMalformedSignature
	}

	if !hmac.Equal([]byte(sig), []byte(mac(secret, unix, payload))) {
		return ErrSignatureMismatch
	}
	if tolerance > 0 {
		if age := now.Sub(time.Unix(sec, 0)); age > tolerance || age < -tolerance {
			return ErrSignatureExpired
		}
	}
	return nil
}

func mac(secret, unix string, payload []byte) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(unix))
	m.Write([]byte{'.'})
	m.Write(payload)
	return hex.EncodeToString(m.Sum(nil))
}
