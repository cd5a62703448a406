package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "volunteer_platform/pkg/errors"
)

const testSecret = "test-secret"

func TestGenerateAndValidate(t *testing.T) {
	req := require.New(t)

	token, err := GenerateAccessToken(7, "volunteer", testSecret, "volunteer-platform", time.Minute)
	req.NoError(err)

	claims, err := ValidateToken(token, testSecret)
	req.NoError(err)
	req.Equal(int64(7), claims.UserID)
	req.Equal("volunteer", claims.Role)
	req.Equal("volunteer-platform", claims.Issuer)
	req.Equal("7", claims.Subject)
}

func TestValidateToken_Failures(t *testing.T) {
	expired, err := GenerateAccessToken(7, "volunteer", testSecret, "iss", -time.Minute)
	require.NoError(t, err)

	foreign, err := GenerateAccessToken(7, "volunteer", "other-secret", "iss", time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, apperrors.ErrTokenExpired},
		{"wrong secret", foreign, apperrors.ErrInvalidToken},
		{"malformed", "not-a-token", apperrors.ErrInvalidToken},
		{"empty", "", apperrors.ErrInvalidToken},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, testSecret)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestGenerateAccessToken_EmptySecret(t *testing.T) {
	_, err := GenerateAccessToken(1, "admin", "", "iss", time.Minute)
	require.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	req := require.New(t)

	first, err := GenerateRefreshToken(9, testSecret, time.Hour)
	req.NoError(err)
	second, err := GenerateRefreshToken(9, testSecret, time.Hour)
	req.NoError(err)
	req.NotEqual(first, second)

	userID, err := ValidateRefreshToken(first, testSecret)
	req.NoError(err)
	req.Equal(int64(9), userID)

	_, err = ValidateRefreshToken(first, "other-secret")
	req.ErrorIs(err, apperrors.ErrInvalidToken)

	expired, err := GenerateRefreshToken(9, testSecret, -time.Minute)
	req.NoError(err)
	_, err = ValidateRefreshToken(expired, testSecret)
	req.ErrorIs(err, apperrors.ErrTokenExpired)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	refresh, err := GenerateRefreshToken(9, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(refresh, testSecret)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
