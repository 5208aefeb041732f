package auth

import (
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/zvrva/transferbooking/config"
	"github.com/zvrva/transferbooking/internal/domain"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestSecureCompare(t *testing.T) {
	testCases := []struct {
		name  string
		a     string
		b     string
		equal bool
	}{
		{name: "equal", a: "s3cr3t-value", b: "s3cr3t-value", equal: true},
		{name: "both empty", a: "", b: "", equal: true},
		{name: "mismatch first byte", a: "Xecret", b: "secret", equal: false},
		{name: "mismatch last byte", a: "secreX", b: "secret", equal: false},
		{name: "mismatch middle byte", a: "secXet", b: "secret", equal: false},
		{name: "a shorter", a: "secr", b: "secret", equal: false},
		{name: "b shorter", a: "secret", b: "secr", equal: false},
		{name: "a empty", a: "", b: "secret", equal: false},
		{name: "b empty", a: "secret", b: "", equal: false},
		{name: "shared prefix different length", a: "secret", b: "secret-extended", equal: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.equal, SecureCompare(tc.a, tc.b))
		})
	}
}

func TestAuthenticator_SecretMode(t *testing.T) {
	a := New(config.AuthConfig{Mode: ModeSecret, Secret: "topsecret"}, testLogger())

	t.Run("valid key", func(t *testing.T) {
		header := http.Header{}
		header.Set(HeaderAPIKey, "topsecret")
		assert.NoError(t, a.Verify(header, nil))
	})

	t.Run("missing key", func(t *testing.T) {
		err := a.Verify(http.Header{}, nil)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("wrong key", func(t *testing.T) {
		header := http.Header{}
		header.Set(HeaderAPIKey, "notsecret")
		err := a.Verify(header, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})
}

func TestAuthenticator_HMACMode(t *testing.T) {
	a := New(config.AuthConfig{Mode: ModeHMAC, Secret: "webhooksecret"}, testLogger())
	body := []byte(`{"customer_name":"Ada"}`)

	t.Run("valid signature", func(t *testing.T) {
		header := http.Header{}
		header.Set(HeaderSubmissionID, "sub-42")
		header.Set(HeaderSignature, a.Signature(body, "sub-42"))
		assert.NoError(t, a.Verify(header, body))
	})

	t.Run("missing signature", func(t *testing.T) {
		err := a.Verify(http.Header{}, body)
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("tampered body", func(t *testing.T) {
		header := http.Header{}
		header.Set(HeaderSubmissionID, "sub-42")
		header.Set(HeaderSignature, a.Signature(body, "sub-42"))
		err := a.Verify(header, []byte(`{"customer_name":"Eve"}`))
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})

	t.Run("wrong submission id", func(t *testing.T) {
		header := http.Header{}
		header.Set(HeaderSubmissionID, "sub-43")
		header.Set(HeaderSignature, a.Signature(body, "sub-42"))
		err := a.Verify(header, body)
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})

	t.Run("malformed signature", func(t *testing.T) {
		header := http.Header{}
		header.Set(HeaderSignature, "sha256=deadbeef")
		err := a.Verify(header, body)
		assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	})
}

func TestSignature_Format(t *testing.T) {
	a := New(config.AuthConfig{Mode: ModeHMAC, Secret: "s"}, testLogger())
	sig := a.Signature([]byte("body"), "id")
	assert.Regexp(t, `^sha256=[0-9a-f]{64}$`, sig)
}
