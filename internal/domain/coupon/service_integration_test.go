package coupon

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB connects to the database named by TEST_DATABASE_URL. The
// redemption guard lives in a single UPDATE statement and only a real
// database exercises two transactions racing for the same row, so these
// tests skip when no database is available.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Coupon{}))
	return db
}

func TestRedeem_LastUseGoesToExactlyOneTransaction(t *testing.T) {
	db := openTestDB(t)

	code := NormalizeCode(fmt.Sprintf("LAST-%s", uuid.NewString()[:8]))
	c := &Coupon{
		Code:          code,
		DiscountType:  DiscountTypeFixed,
		DiscountValue: 500,
		MaxUses:       1,
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(c).Error)
	t.Cleanup(func() { db.Unscoped().Delete(c) })

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- db.Transaction(func(tx *gorm.DB) error {
				return Redeem(tx, code)
			})
		}()
	}

	var succeeded, exhausted int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrCouponExhausted):
			exhausted++
		default:
			t.Fatalf("unexpected redeem error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one checkout should win the last use")
	require.Equal(t, 1, exhausted, "the loser should see the exhausted error")

	var stored Coupon
	require.NoError(t, db.Where("code = ?", code).First(&stored).Error)
	require.Equal(t, 1, stored.UsageCount)
}

func TestRedeem_RollbackReleasesTheUse(t *testing.T) {
	db := openTestDB(t)

	code := NormalizeCode(fmt.Sprintf("ROLL-%s", uuid.NewString()[:8]))
	c := &Coupon{
		Code:          code,
		DiscountType:  DiscountTypeFixed,
		DiscountValue: 500,
		MaxUses:       1,
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(c).Error)
	t.Cleanup(func() { db.Unscoped().Delete(c) })

	// A checkout that redeems and then fails must not burn the use.
	checkoutFailed := errors.New("stock reservation failed")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := Redeem(tx, code); err != nil {
			return err
		}
		return checkoutFailed
	})
	require.ErrorIs(t, err, checkoutFailed)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return Redeem(tx, code)
	}))

	var stored Coupon
	require.NoError(t, db.Where("code = ?", code).First(&stored).Error)
	require.Equal(t, 1, stored.UsageCount)
}
