package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/maison/internal/models"
)

func TestApplyPoints(t *testing.T) {
	tests := []struct {
		name     string
		balance  int
		txnType  string
		delta    int
		recorded int
		next     int
		err      error
	}{
		{"earn", 100, models.TransactionEarned, 85, 85, 185, nil},
		{"redeem within balance", 1500, models.TransactionRedeemed, -1000, -1000, 500, nil},
		{"redeem whole balance", 200, models.TransactionRedeemed, -200, -200, 0, nil},
		{"redeem over balance", 200, models.TransactionRedeemed, -1500, 0, 200, ErrInsufficientPoints},
		{"adjustment clamps at zero", 300, models.TransactionAdjustment, -500, -300, 0, nil},
		{"positive adjustment", 0, models.TransactionAdjustment, 250, 250, 250, nil},
		{"expiry clamps at zero", 40, models.TransactionExpired, -100, -40, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorded, next, err := applyPoints(tt.balance, tt.txnType, tt.delta)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.recorded, recorded)
			assert.Equal(t, tt.next, next)
		})
	}
}

func TestTranslate(t *testing.T) {
	other := errors.New("connection reset")

	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrAlreadyExists)
	assert.ErrorIs(t, translate(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey)), ErrAlreadyExists)
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, translate(ErrInsufficientPoints), ErrInsufficientPoints)
	assert.Same(t, other, translate(other))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@example.com", NormalizeEmail("  Ana@Example.COM "))
	assert.Empty(t, NormalizeEmail("   "))
}
