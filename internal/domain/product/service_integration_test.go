package product

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB connects to the database named by TEST_DATABASE_URL. The stock
// guard is a conditional UPDATE and only a real database exercises two
// transactions racing for the last unit, so these tests skip when no
// database is available.
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
	require.NoError(t, db.AutoMigrate(&Product{}))
	return db
}

func TestReserveStock_LastUnitGoesToExactlyOneTransaction(t *testing.T) {
	db := openTestDB(t)

	p := &Product{
		SKU:           fmt.Sprintf("RACE-%s", uuid.NewString()[:8]),
		Name:          "Race Widget",
		Price:         1000,
		IsActive:      true,
		TrackQuantity: true,
		Quantity:      1,
	}
	require.NoError(t, db.Create(p).Error)
	t.Cleanup(func() { db.Unscoped().Delete(p) })

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- db.Transaction(func(tx *gorm.DB) error {
				return ReserveStock(tx, p.ID, 1)
			})
		}()
	}

	var succeeded, insufficient int
	for i := 0; i < 2; i++ {
		var stockErr *ErrInsufficientStock
		switch err := <-results; {
		case err == nil:
			succeeded++
		case errors.As(err, &stockErr):
			insufficient++
		default:
			t.Fatalf("unexpected reserve error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded, "exactly one checkout should get the last unit")
	require.Equal(t, 1, insufficient, "the loser should see insufficient stock")

	var stored Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	require.Equal(t, 0, stored.Quantity)
}

func TestReserveStock_RollbackReturnsTheUnit(t *testing.T) {
	db := openTestDB(t)

	p := &Product{
		SKU:           fmt.Sprintf("ROLL-%s", uuid.NewString()[:8]),
		Name:          "Rollback Widget",
		Price:         1000,
		IsActive:      true,
		TrackQuantity: true,
		Quantity:      1,
	}
	require.NoError(t, db.Create(p).Error)
	t.Cleanup(func() { db.Unscoped().Delete(p) })

	checkoutFailed := errors.New("payment declined")
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := ReserveStock(tx, p.ID, 1); err != nil {
			return err
		}
		return checkoutFailed
	})
	require.ErrorIs(t, err, checkoutFailed)

	var stored Product
	require.NoError(t, db.First(&stored, p.ID).Error)
	require.Equal(t, 1, stored.Quantity, "a failed checkout must not keep the reservation")
}
