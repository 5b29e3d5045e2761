package accesstoken_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/accesstoken"
	"github.com/dmitrymomot/authkit/pkg/fingerprint"
)

const testSecret = "access-token-test-secret-0123456789"

func newCodec(t *testing.T, engine *fingerprint.Engine) *accesstoken.Codec {
	t.Helper()
	codec, err := accesstoken.NewCodec(testSecret, 10*time.Minute, time.Minute, engine)
	require.NoError(t, err)
	return codec
}

func TestNewCodec(t *testing.T) {
	t.Parallel()

	t.Run("rejects short secret", func(t *testing.T) {
		t.Parallel()
		_, err := accesstoken.NewCodec("short", time.Minute, time.Second, nil)
		require.ErrorIs(t, err, accesstoken.ErrSecretTooShort)
	})

	t.Run("rejects non-positive lifetime", func(t *testing.T) {
		t.Parallel()
		_, err := accesstoken.NewCodec(testSecret, 0, time.Second, nil)
		require.ErrorIs(t, err, accesstoken.ErrInvalidLifetime)
	})
}

func TestIssueVerify(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("round trip without fingerprint", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)

		tok, err := codec.Issue(userID, "user@example.com", accesstoken.Client{})
		require.NoError(t, err)
		require.NotEmpty(t, tok.Value)

		identity, err := codec.Verify(tok.Value, accesstoken.Client{})
		require.NoError(t, err)
		assert.Equal(t, userID, identity.UserID)
		assert.Equal(t, "user@example.com", identity.Email)
		assert.WithinDuration(t, tok.ExpiresAt, identity.ExpiresAt, time.Second)
	})

	t.Run("rotate hint precedes expiry by margin", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)

		tok, err := codec.Issue(userID, "user@example.com", accesstoken.Client{})
		require.NoError(t, err)
		assert.WithinDuration(t, tok.ExpiresAt.Add(-time.Minute), tok.RotateAt, time.Second)
	})

	t.Run("rotate hint clamped to now for short lifetimes", func(t *testing.T) {
		t.Parallel()
		codec, err := accesstoken.NewCodec(testSecret, 10*time.Second, time.Minute, nil)
		require.NoError(t, err)

		tok, err := codec.Issue(userID, "user@example.com", accesstoken.Client{})
		require.NoError(t, err)
		assert.False(t, tok.RotateAt.After(tok.ExpiresAt))
		assert.WithinDuration(t, time.Now(), tok.RotateAt, time.Second)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		t.Parallel()
		codec, err := accesstoken.NewCodec(testSecret, time.Millisecond, 0, nil)
		require.NoError(t, err)

		tok, err := codec.Issue(userID, "user@example.com", accesstoken.Client{})
		require.NoError(t, err)

		time.Sleep(1100 * time.Millisecond) // exp has second resolution

		_, err = codec.Verify(tok.Value, accesstoken.Client{})
		require.ErrorIs(t, err, accesstoken.ErrExpiredToken)
	})

	t.Run("tampering any byte fails verification", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)

		tok, err := codec.Issue(userID, "user@example.com", accesstoken.Client{})
		require.NoError(t, err)

		for _, i := range []int{0, len(tok.Value) / 2, len(tok.Value) - 1} {
			raw := []byte(tok.Value)
			if raw[i] == 'A' {
				raw[i] = 'B'
			} else {
				raw[i] = 'A'
			}
			_, err := codec.Verify(string(raw), accesstoken.Client{})
			assert.Error(t, err, "tampered byte %d", i)
		}
	})

	t.Run("garbage input", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)

		for _, raw := range []string{"", "a.b", "a.b.c.d", "not a token at all"} {
			_, err := codec.Verify(raw, accesstoken.Client{})
			assert.Error(t, err)
		}
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)
		other, err := accesstoken.NewCodec("a-different-secret-0123456789abc", 10*time.Minute, time.Minute, nil)
		require.NoError(t, err)

		tok, err := other.Issue(userID, "user@example.com", accesstoken.Client{})
		require.NoError(t, err)

		_, err = codec.Verify(tok.Value, accesstoken.Client{})
		require.ErrorIs(t, err, accesstoken.ErrInvalidSignature)
	})

	t.Run("unexpected algorithm rejected", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)

		// Properly signed token that claims the "none" algorithm.
		hdr := base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"JWT","alg":"none"}`))
		claims := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"` + userID.String() + `","email":"user@example.com","exp":` + "9999999999" + `}`))
		payload := hdr + "." + claims
		mac := hmac.New(sha256.New, []byte(testSecret))
		mac.Write([]byte(payload))
		raw := payload + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

		_, err := codec.Verify(raw, accesstoken.Client{})
		require.ErrorIs(t, err, accesstoken.ErrUnexpectedAlgorithm)
	})
}

func TestFingerprintBinding(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	client := accesstoken.Client{IP: "203.0.113.5", UserAgent: "Mozilla/5.0"}

	t.Run("mismatch rejected when ip binding enabled", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, fingerprint.New(testSecret, true, true))

		tok, err := codec.Issue(userID, "user@example.com", client)
		require.NoError(t, err)

		_, err = codec.Verify(tok.Value, client)
		require.NoError(t, err)

		_, err = codec.Verify(tok.Value, accesstoken.Client{IP: "203.0.113.6", UserAgent: "Mozilla/5.0"})
		require.ErrorIs(t, err, accesstoken.ErrFingerprintMismatch)
	})

	t.Run("ip change accepted when binding disabled", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)

		tok, err := codec.Issue(userID, "user@example.com", client)
		require.NoError(t, err)

		_, err = codec.Verify(tok.Value, accesstoken.Client{IP: "203.0.113.6", UserAgent: "Mozilla/5.0"})
		require.NoError(t, err)
	})

	t.Run("fingerprint-less token accepted by enabled verifier", func(t *testing.T) {
		t.Parallel()
		issuer := newCodec(t, nil)
		verifier := newCodec(t, fingerprint.New(testSecret, true, true))

		tok, err := issuer.Issue(userID, "user@example.com", client)
		require.NoError(t, err)

		// Tokens issued by the fingerprint-less predecessor still verify.
		_, err = verifier.Verify(tok.Value, client)
		require.NoError(t, err)
	})
}

func TestPeekExpiry(t *testing.T) {
	t.Parallel()

	t.Run("reads expiry without verification", func(t *testing.T) {
		t.Parallel()
		codec := newCodec(t, nil)
		tok, err := codec.Issue(uuid.New(), "user@example.com", accesstoken.Client{})
		require.NoError(t, err)

		exp, ok := accesstoken.PeekExpiry(tok.Value)
		require.True(t, ok)
		assert.WithinDuration(t, tok.ExpiresAt, exp, time.Second)

		// Peek works even when the signature is broken.
		broken := tok.Value[:len(tok.Value)-2] + "zz"
		exp, ok = accesstoken.PeekExpiry(broken)
		require.True(t, ok)
		assert.WithinDuration(t, tok.ExpiresAt, exp, time.Second)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()
		for _, raw := range []string{"", "a.b", "a.!!!.c", strings.Repeat("x", 50)} {
			_, ok := accesstoken.PeekExpiry(raw)
			assert.False(t, ok, "input %q", raw)
		}
	})
}
