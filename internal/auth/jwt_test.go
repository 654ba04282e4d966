package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gymcore/gym-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	tok, err := m.GenerateToken(42, models.RoleTrainer)
	require.NoError(t, err)

	claims, err := m.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, models.RoleTrainer, claims.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		old := *m
		old.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		tok, err := old.GenerateToken(1, models.RoleClient)
		require.NoError(t, err)

		_, err = m.ValidateToken(tok)
		assert.Error(t, err)
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewTokenManager("another-secret", time.Hour)
		require.NoError(t, err)
		tok, err := other.GenerateToken(1, models.RoleClient)
		require.NoError(t, err)

		_, err = m.ValidateToken(tok)
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": 7,
			"rol": "superuser",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		s, err := tok.SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = m.ValidateToken(s)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-token")
		assert.Error(t, err)
	})
}

func TestNewTokenManager_EmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestIsAuthorized(t *testing.T) {
	tests := []struct {
		role   models.Role
		action Action
		want   bool
	}{
		{models.RoleClient, ActionCreateReservation, true},
		{models.RoleTrainer, ActionCreateReservation, false},
		{models.RoleClient, ActionCancelAnyReservation, false},
		{models.RoleTrainer, ActionCancelAnyReservation, true},
		{models.RoleAdmin, ActionCancelAnyReservation, true},
		{models.RoleClient, ActionRegisterShift, false},
		{models.RoleTrainer, ActionRegisterShift, true},
		{models.RoleAdmin, ActionRegisterShift, true},
		{models.RoleClient, ActionRegisterAccess, true},
		{models.RoleAdmin, ActionRegisterAccess, false},
		{models.RoleTrainer, ActionManageClasses, false},
		{models.RoleAdmin, ActionManageClasses, true},
		{models.RoleTrainer, ActionViewReports, false},
		{models.RoleAdmin, Action("unknown:thing"), false},
		{models.Role(""), ActionCreateReservation, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, IsAuthorized(tt.role, tt.action))
		})
	}
}
