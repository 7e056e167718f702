package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abisalde/student-portal/internal/testutil"
)

func TestActionCodesRedeemOnce(t *testing.T) {
	rdb := testutil.StartRedis(t)
	codes := NewActionCodes(rdb)
	ctx := context.Background()

	code, err := codes.Create(ctx, PurposeVerifyEmail, "user-1", "asha@example.com", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, code)

	entry, err := codes.Redeem(ctx, PurposeVerifyEmail, code)
	require.NoError(t, err)
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, "asha@example.com", entry.Email)

	_, err = codes.Redeem(ctx, PurposeVerifyEmail, code)
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestActionCodesPurposeAndExpiry(t *testing.T) {
	rdb := testutil.StartRedis(t)
	codes := NewActionCodes(rdb)
	ctx := context.Background()

	code, err := codes.Create(ctx, PurposeResetPassword, "user-1", "asha@example.com", time.Minute)
	require.NoError(t, err)
	_, err = codes.Redeem(ctx, PurposeVerifyEmail, code)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	short, err := codes.Create(ctx, PurposeVerifyEmail, "user-1", "asha@example.com", 50*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(150 * time.Millisecond)
	_, err = codes.Redeem(ctx, PurposeVerifyEmail, short)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	_, err = codes.Redeem(ctx, PurposeVerifyEmail, "")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestHasher(t *testing.T) {
	_, err := NewHasher("")
	assert.ErrorIs(t, err, ErrHashSecretNotConfigured)

	h, err := NewHasher("pepper")
	require.NoError(t, err)

	hash := h.HashToken("refresh-token")
	assert.NotEqual(t, "refresh-token", hash)
	assert.Equal(t, hash, h.HashToken("refresh-token"))
	assert.True(t, h.VerifyTokenHash("refresh-token", hash))
	assert.False(t, h.VerifyTokenHash("other-token", hash))
}
