package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndAuthenticate_Valid(t *testing.T) {
	m := NewTokenManager("super-secret", time.Hour)

	tok, err := m.Issue(42, "a@b.com")
	require.NoError(t, err)

	res := m.Authenticate(tok)
	assert.Equal(t, StatusValid, res.Status)
	assert.Equal(t, int64(42), res.Identity.UserID)
	assert.Equal(t, "a@b.com", res.Identity.Email)
}

func TestIssue_ClaimsCarryIssuedAtAndSevenDayExpiry(t *testing.T) {
	m := NewTokenManager("secret", 0)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	tok, err := m.Issue(7, "x@y.org")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)

	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "x@y.org", claims.Email)
	assert.Equal(t, fixed, claims.IssuedAt.Time.UTC())
	assert.Equal(t, fixed.Add(7*24*time.Hour), claims.ExpiresAt.Time.UTC())
}

func TestIssue_MissingSigningKey(t *testing.T) {
	m := NewTokenManager("", time.Hour)

	_, err := m.Issue(1, "a@b.com")
	assert.ErrorIs(t, err, ErrSigningKeyMissing)
}

func TestAuthenticate_Expired(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := m.Issue(1, "a@b.com")
	require.NoError(t, err)

	m.now = time.Now
	res := m.Authenticate(tok)
	assert.Equal(t, StatusExpired, res.Status)
	assert.Zero(t, res.Identity.UserID)
}

func TestAuthenticate_ExpiredWithWrongSignatureIsInvalid(t *testing.T) {
	issuer := NewTokenManager("right-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := issuer.Issue(1, "a@b.com")
	require.NoError(t, err)

	res := NewTokenManager("wrong-secret", time.Hour).Authenticate(tok)
	assert.Equal(t, StatusInvalid, res.Status)
}

func TestAuthenticate_Statuses(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	other, err := NewTokenManager("other-secret", time.Hour).Issue(1, "a@b.com")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  Status
	}{
		{"空文字", "", StatusAbsent},
		{"空白のみ", "   ", StatusAbsent},
		{"形式不正", "not.a.jwt", StatusInvalid},
		{"署名鍵違い", other, StatusInvalid},
		{"alg=none", none, StatusInvalid},
		{"exp欠落", noExp, StatusInvalid},
		{"userId欠落", noUser, StatusInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Authenticate(tt.token).Status)
		})
	}
}

func TestAuthenticate_MissingSigningKeyIsInvalid(t *testing.T) {
	tok, err := NewTokenManager("secret", time.Hour).Issue(1, "a@b.com")
	require.NoError(t, err)

	res := NewTokenManager("", time.Hour).Authenticate(tok)
	assert.Equal(t, StatusInvalid, res.Status)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "absent", StatusAbsent.String())
	assert.Equal(t, "valid", StatusValid.String())
	assert.Equal(t, "expired", StatusExpired.String())
	assert.Equal(t, "invalid", StatusInvalid.String())
	assert.Equal(t, "unknown", Status(99).String())
}
