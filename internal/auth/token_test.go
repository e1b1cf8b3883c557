package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodecRequiresSecret(t *testing.T) {
	_, err := NewCodec("")
	require.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestCodecIssueResolve(t *testing.T) {
	codec, err := NewCodec("signing-key")
	require.NoError(t, err)
	issuedAt := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	codec.now = fixedClock(issuedAt)

	payload := TokenPayload{SessionID: uuid.New(), UserID: uuid.New()}
	token, expiresAt, err := codec.Issue(payload)
	require.NoError(t, err)
	require.True(t, issuedAt.Add(12*time.Hour).Equal(expiresAt))

	resolved, ok := codec.Resolve(token)
	require.True(t, ok)
	require.Equal(t, payload, resolved)

	codec.now = fixedClock(issuedAt.Add(12*time.Hour - time.Minute))
	_, ok = codec.Resolve(token)
	require.True(t, ok)

	codec.now = fixedClock(issuedAt.Add(12*time.Hour + time.Second))
	_, ok = codec.Resolve(token)
	require.False(t, ok, "expired tokens must not resolve")
}

func TestCodecRejectsTampering(t *testing.T) {
	codec, err := NewCodec("signing-key")
	require.NoError(t, err)
	token, _, err := codec.Issue(TokenPayload{SessionID: uuid.New(), UserID: uuid.New()})
	require.NoError(t, err)

	_, ok := codec.Resolve(token)
	require.True(t, ok)
	require.Len(t, strings.Split(token, "."), 3)

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_."
	for i := range len(token) {
		for _, c := range []byte(alphabet) {
			if token[i] == c {
				continue
			}
			altered := []byte(token)
			altered[i] = c
			if _, ok := codec.Resolve(string(altered)); ok {
				t.Fatalf("altered token resolved: index %d %q -> %q", i, token[i], c)
			}
		}
	}

	other, err := NewCodec("other-key")
	require.NoError(t, err)
	_, ok = other.Resolve(token)
	require.False(t, ok)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		_, ok = codec.Resolve(raw)
		require.False(t, ok, raw)
	}
}

func TestCodecRejectsForeignAlgorithmsAndClaims(t *testing.T) {
	codec, err := NewCodec("signing-key")
	require.NoError(t, err)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		SessionID:        uuid.NewString(),
		UserID:           uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok := codec.Resolve(unsigned)
	require.False(t, ok)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, sessionClaims{
		SessionID:        uuid.NewString(),
		UserID:           uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte("signing-key"))
	require.NoError(t, err)
	_, ok = codec.Resolve(hs512)
	require.False(t, ok)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SessionID: uuid.NewString(),
		UserID:    uuid.NewString(),
	}).SignedString([]byte("signing-key"))
	require.NoError(t, err)
	_, ok = codec.Resolve(noExpiry)
	require.False(t, ok)

	badIDs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		SessionID:        "42",
		UserID:           uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp},
	}).SignedString([]byte("signing-key"))
	require.NoError(t, err)
	_, ok = codec.Resolve(badIDs)
	require.False(t, ok)
}
