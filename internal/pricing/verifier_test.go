package pricing

import (
	"context"
	"errors"
	"testing"

	"flashstore-be/internal/coupon"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) GetPricesByIDs(ctx context.Context, ids []string) (map[string]float64, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

type MockCouponRules struct {
	mock.Mock
}

func (m *MockCouponRules) Validate(ctx context.Context, code string, subtotal float64) (*coupon.Validation, *coupon.Coupon, error) {
	args := m.Called(ctx, code, subtotal)
	var v *coupon.Validation
	if args.Get(0) != nil {
		v = args.Get(0).(*coupon.Validation)
	}
	var c *coupon.Coupon
	if args.Get(1) != nil {
		c = args.Get(1).(*coupon.Coupon)
	}
	return v, c, args.Error(2)
}

func TestVerifier_Quote(t *testing.T) {
	ctx := context.Background()

	items := []LineItem{
		{ProductID: "prod-1", Name: "Flash Tee", Quantity: 2, Size: "M", Color: "black"},
		{ProductID: "prod-2", Name: "Flash Hoodie", Quantity: 1, Size: "L", Color: "white"},
	}

	t.Run("Subtotal from server prices only", func(t *testing.T) {
		products := new(MockPriceSource)
		products.On("GetPricesByIDs", ctx, []string{"prod-1", "prod-2"}).
			Return(map[string]float64{"prod-1": 300, "prod-2": 250}, nil)

		q, err := NewVerifier(products, new(MockCouponRules)).Quote(ctx, items, "")
		require.NoError(t, err)
		assert.Equal(t, 850.0, q.Subtotal)
		assert.Equal(t, 0.0, q.Discount)
		assert.Equal(t, FlatShippingFee, q.ShippingFee)
		assert.Equal(t, 900.0, q.Total)
		assert.Equal(t, 300.0, q.Prices["prod-1"])
	})

	t.Run("Unknown product is tampering", func(t *testing.T) {
		products := new(MockPriceSource)
		products.On("GetPricesByIDs", ctx, mock.Anything).
			Return(map[string]float64{"prod-1": 300}, nil)

		_, err := NewVerifier(products, new(MockCouponRules)).Quote(ctx, items, "")

		var notFound *ProductNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "prod-2", notFound.ProductID)
		assert.Contains(t, err.Error(), "Security check failed")
	})

	t.Run("Shipping threshold boundary", func(t *testing.T) {
		products := new(MockPriceSource)
		products.On("GetPricesByIDs", ctx, []string{"prod-1"}).
			Return(map[string]float64{"prod-1": 999.99}, nil).Once()
		products.On("GetPricesByIDs", ctx, []string{"prod-1"}).
			Return(map[string]float64{"prod-1": 1000.00}, nil).Once()

		v := NewVerifier(products, new(MockCouponRules))
		one := []LineItem{{ProductID: "prod-1", Quantity: 1}}

		q, err := v.Quote(ctx, one, "")
		require.NoError(t, err)
		assert.Equal(t, 50.0, q.ShippingFee)

		q, err = v.Quote(ctx, one, "")
		require.NoError(t, err)
		assert.Equal(t, 0.0, q.ShippingFee)
	})

	t.Run("Valid percentage coupon", func(t *testing.T) {
		products := new(MockPriceSource)
		products.On("GetPricesByIDs", ctx, mock.Anything).
			Return(map[string]float64{"prod-1": 500}, nil)

		coupons := new(MockCouponRules)
		coupons.On("Validate", ctx, "OFF20", 1000.0).Return(
			&coupon.Validation{Valid: true, DiscountType: coupon.DiscountPercentage, Value: 20},
			&coupon.Coupon{Code: "OFF20", DiscountType: coupon.DiscountPercentage, Value: 20},
			nil,
		)

		q, err := NewVerifier(products, coupons).Quote(ctx,
			[]LineItem{{ProductID: "prod-1", Quantity: 2}}, "OFF20")
		require.NoError(t, err)
		assert.Equal(t, 1000.0, q.Subtotal)
		assert.Equal(t, 200.0, q.Discount)
		assert.Equal(t, 0.0, q.ShippingFee)
		assert.Equal(t, 800.0, q.Total)
	})

	t.Run("Rejected coupon is a hard failure at checkout", func(t *testing.T) {
		products := new(MockPriceSource)
		products.On("GetPricesByIDs", ctx, mock.Anything).
			Return(map[string]float64{"prod-1": 500}, nil)

		coupons := new(MockCouponRules)
		coupons.On("Validate", ctx, "OLD", 500.0).Return(
			&coupon.Validation{Valid: false, Message: "This coupon has expired"}, nil, nil,
		)

		_, err := NewVerifier(products, coupons).Quote(ctx,
			[]LineItem{{ProductID: "prod-1", Quantity: 1}}, "OLD")

		var rejected *CouponRejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, "This coupon has expired", rejected.Message)
	})

	t.Run("Oversized fixed coupon floors total at shipping", func(t *testing.T) {
		products := new(MockPriceSource)
		products.On("GetPricesByIDs", ctx, mock.Anything).
			Return(map[string]float64{"prod-1": 300}, nil)

		coupons := new(MockCouponRules)
		coupons.On("Validate", ctx, "FLAT500", 300.0).Return(
			&coupon.Validation{Valid: true, DiscountType: coupon.DiscountFixed, Value: 500},
			&coupon.Coupon{Code: "FLAT500", DiscountType: coupon.DiscountFixed, Value: 500},
			nil,
		)

		q, err := NewVerifier(products, coupons).Quote(ctx,
			[]LineItem{{ProductID: "prod-1", Quantity: 1}}, "FLAT500")
		require.NoError(t, err)
		assert.Equal(t, 500.0, q.Discount)
		assert.Equal(t, 50.0, q.Total)
	})

	t.Run("Price lookup failure propagates", func(t *testing.T) {
		products := new(MockPriceSource)
		products.On("GetPricesByIDs", ctx, mock.Anything).
			Return(nil, errors.New("db error"))

		_, err := NewVerifier(products, new(MockCouponRules)).Quote(ctx, items, "")
		assert.Error(t, err)
	})
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(1000.00, 1000.00))
	assert.True(t, WithinTolerance(1000.00, 1000.80))
	assert.True(t, WithinTolerance(1000.00, 1001.00))
	assert.False(t, WithinTolerance(1000.00, 1001.50))
	assert.True(t, WithinTolerance(1000.00, 999.20))
	assert.False(t, WithinTolerance(1000.00, 998.50))
}
