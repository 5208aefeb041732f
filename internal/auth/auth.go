package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/zvrva/transferbooking/config"
	"github.com/zvrva/transferbooking/internal/domain"
)

const (
	ModeSecret = "secret"
	ModeHMAC   = "hmac"

	HeaderAPIKey       = "X-Api-Key"
	HeaderSignature    = "X-Signature"
	HeaderSubmissionID = "X-Submission-Id"

	signaturePrefix = "sha256="
)

type Authenticator struct {
	mode   string
	secret []byte
	log    *logrus.Logger
}

func New(cfg config.AuthConfig, log *logrus.Logger) *Authenticator {
	return &Authenticator{
		mode:   cfg.Mode,
		secret: []byte(cfg.Secret),
		log:    log,
	}
}

// Verify checks the inbound credential against the configured mode. In secret
// mode the X-Api-Key header must equal the shared secret; in HMAC mode the
// X-Signature header must carry "sha256=" plus the hex HMAC-SHA256 of
// body||submissionID under the shared secret. Both paths use the padded
// constant-time comparison below.
func (a *Authenticator) Verify(header http.Header, body []byte) error {
	switch a.mode {
	case ModeHMAC:
		sig := header.Get(HeaderSignature)
		if sig == "" {
			return domain.ErrMissingCredential
		}
		expected := a.Signature(body, header.Get(HeaderSubmissionID))
		if !SecureCompare(sig, expected) {
			a.log.WithField("mode", a.mode).Warn("webhook signature mismatch")
			return domain.ErrInvalidCredential
		}
	default:
		key := header.Get(HeaderAPIKey)
		if key == "" {
			return domain.ErrMissingCredential
		}
		if !SecureCompare(key, string(a.secret)) {
			a.log.WithField("mode", a.mode).Warn("api key mismatch")
			return domain.ErrInvalidCredential
		}
	}
	return nil
}

// Signature computes the expected signature header value for a body and
// submission id.
func (a *Authenticator) Signature(body []byte, submissionID string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write(body)
	mac.Write([]byte(submissionID))
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// SecureCompare is a timing-safe string equality check that leaks neither
// mismatch position nor length. Both operands are padded to the longer length
// with a sentinel byte and the XOR accumulator runs over the full padded
// length; whether the original lengths matched is tracked separately.
func SecureCompare(a, b string) bool {
	const sentinel = 0x00

	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	var acc byte
	for i := 0; i < n; i++ {
		ca := byte(sentinel)
		if i < len(a) {
			ca = a[i]
		}
		cb := byte(sentinel)
		if i < len(b) {
			cb = b[i]
		}
		acc |= ca ^ cb
	}

	sameLen := len(a) == len(b)
	return sameLen && acc == 0
}
