package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-farm-sync/models"
)

func TestGenerateJWTToken_Success(t *testing.T) {
	token, err := GenerateJWTToken("test-issuer", "node-1", []string{"fowls", "listings"}, time.Hour, "secret-key")
	require.NoError(t, err)

	assert.NotEmpty(t, token.SignedString)
	require.NotNil(t, token.Token)
	assert.Equal(t, "test-issuer", token.Issuer)
	assert.Equal(t, "node-1", token.Subject)
	assert.Equal(t, []string{"fowls", "listings"}, token.Collections)
	assert.True(t, token.ExpiresAt.After(time.Now()))
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		subject  string
		duration time.Duration
		key      string
	}{
		{"empty issuer", "", "node", time.Hour, "key"},
		{"empty subject", "iss", "", time.Hour, "key"},
		{"zero duration", "iss", "node", 0, "key"},
		{"empty key", "iss", "node", time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, tt.subject, nil, tt.duration, tt.key)
			assert.Error(t, err)
		})
	}
}

func TestValidateAndParseJWTToken_Success(t *testing.T) {
	generated, err := GenerateJWTToken("test-issuer", "node-2", []string{models.ScopeAll}, 5*time.Minute, "secret-key")
	require.NoError(t, err)

	parsed, err := ValidateAndParseJWTToken(generated.SignedString, "secret-key", "test-issuer")
	require.NoError(t, err)

	assert.Equal(t, "node-2", parsed.Subject)
	assert.Equal(t, []string{models.ScopeAll}, parsed.Collections)
	assert.Equal(t, generated.SignedString, parsed.SignedString)
	assert.True(t, parsed.Allows("messages"))
	require.NotNil(t, parsed.Token)
	assert.True(t, parsed.Valid)
}

func TestValidateAndParseJWTToken_Rejects(t *testing.T) {
	valid, err := GenerateJWTToken("issuer", "node", nil, time.Minute, "key")
	require.NoError(t, err)

	expiredClaims := &models.Token{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "issuer",
		Subject:   "node",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("key"))
	require.NoError(t, err)

	noSubjectClaims := &models.Token{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "issuer",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noSubjectClaims).SignedString([]byte("key"))
	require.NoError(t, err)

	noExpiryClaims := &models.Token{RegisteredClaims: jwt.RegisteredClaims{Issuer: "issuer", Subject: "node"}}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExpiryClaims).SignedString([]byte("key"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{"wrong key", valid.SignedString, "other", "issuer"},
		{"wrong issuer", valid.SignedString, "key", "other"},
		{"expired", expired, "key", "issuer"},
		{"no subject", noSubject, "key", "issuer"},
		{"no expiry", noExpiry, "key", "issuer"},
		{"garbage", "not.a.token", "key", "issuer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAndParseJWTToken(tt.token, tt.key, tt.issuer)
			assert.Error(t, err)
		})
	}
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "  bearer   abc  ", want: "abc"},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := ParseBearerToken(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
