package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Coupon), args.Error(1)
}

func (m *MockRepository) SetUsedCount(ctx context.Context, code string, usedCount int) error {
	args := m.Called(ctx, code, usedCount)
	return args.Error(0)
}

func fixedService(repo Repository, at time.Time) *service {
	return &service{repo: repo, now: func() time.Time { return at }}
}

func intPtr(i int) *int             { return &i }
func floatPtr(f float64) *float64   { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func TestService_Validate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Unknown code", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "NOPE").Return(nil, ErrCouponNotFound)

		v, c, err := fixedService(repo, now).Validate(ctx, "NOPE", 1000)
		require.NoError(t, err)
		assert.Nil(t, c)
		assert.False(t, v.Valid)
		assert.Equal(t, "Invalid coupon code", v.Message)
	})

	t.Run("Inactive", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "OFF20").Return(&Coupon{
			Code: "OFF20", DiscountType: DiscountPercentage, Value: 20, Active: false,
		}, nil)

		v, _, err := fixedService(repo, now).Validate(ctx, "OFF20", 1000)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Contains(t, v.Message, "no longer active")
	})

	t.Run("Expired", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "OLD").Return(&Coupon{
			Code: "OLD", DiscountType: DiscountFixed, Value: 100, Active: true,
			ExpiresAt: timePtr(now.Add(-time.Hour)),
		}, nil)

		v, _, err := fixedService(repo, now).Validate(ctx, "OLD", 1000)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Contains(t, v.Message, "expired")
	})

	t.Run("Usage limit reached", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "MAXED").Return(&Coupon{
			Code: "MAXED", DiscountType: DiscountFixed, Value: 50, Active: true,
			MaxUses: intPtr(10), UsedCount: 10,
		}, nil)

		v, _, err := fixedService(repo, now).Validate(ctx, "MAXED", 1000)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Contains(t, v.Message, "usage limit")
	})

	t.Run("Below minimum order amount", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "BIG").Return(&Coupon{
			Code: "BIG", DiscountType: DiscountPercentage, Value: 10, Active: true,
			MinOrderAmount: floatPtr(2000),
		}, nil)

		v, _, err := fixedService(repo, now).Validate(ctx, "BIG", 1500)
		require.NoError(t, err)
		assert.False(t, v.Valid)
		assert.Contains(t, v.Message, "Minimum order amount")
	})

	t.Run("Valid percentage coupon", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "OFF20").Return(&Coupon{
			Code: "OFF20", DiscountType: DiscountPercentage, Value: 20, Active: true,
			MaxUses: intPtr(100), UsedCount: 3,
			ExpiresAt: timePtr(now.Add(24 * time.Hour)),
		}, nil)

		v, c, err := fixedService(repo, now).Validate(ctx, "OFF20", 1000)
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.True(t, v.Valid)
		assert.Equal(t, DiscountPercentage, v.DiscountType)
		assert.Equal(t, 200.0, c.DiscountFor(1000))
	})

	t.Run("Lookup failure propagates", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "OFF20").Return(nil, errors.New("db error"))

		_, _, err := fixedService(repo, now).Validate(ctx, "OFF20", 1000)
		assert.Error(t, err)
	})
}

func TestCoupon_DiscountFor(t *testing.T) {
	t.Run("Percentage", func(t *testing.T) {
		c := &Coupon{DiscountType: DiscountPercentage, Value: 20}
		assert.Equal(t, 200.0, c.DiscountFor(1000))
	})

	t.Run("Fixed", func(t *testing.T) {
		c := &Coupon{DiscountType: DiscountFixed, Value: 150}
		assert.Equal(t, 150.0, c.DiscountFor(1000))
	})

	t.Run("Fixed larger than subtotal is not clamped here", func(t *testing.T) {
		c := &Coupon{DiscountType: DiscountFixed, Value: 500}
		assert.Equal(t, 500.0, c.DiscountFor(300))
	})
}

func TestService_RecordUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("Increments from current count", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "OFF20").Return(&Coupon{Code: "OFF20", UsedCount: 7}, nil)
		repo.On("SetUsedCount", ctx, "OFF20", 8).Return(nil)

		NewService(repo).RecordUsage(ctx, "OFF20")
		repo.AssertExpectations(t)
	})

	t.Run("Lookup failure is swallowed", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "OFF20").Return(nil, errors.New("db error"))

		NewService(repo).RecordUsage(ctx, "OFF20")
		repo.AssertNotCalled(t, "SetUsedCount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Write failure is swallowed", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByCode", ctx, "OFF20").Return(&Coupon{Code: "OFF20", UsedCount: 1}, nil)
		repo.On("SetUsedCount", ctx, "OFF20", 2).Return(errors.New("db error"))

		NewService(repo).RecordUsage(ctx, "OFF20")
	})
}
