package coupon

import "errors"

var ErrCouponNotFound = errors.New("coupon not found")
