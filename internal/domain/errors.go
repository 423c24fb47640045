package domain

import "errors"

var (
	ErrEmptyCart                 = errors.New("cart is empty")
	ErrAddressRequired           = errors.New("delivery address required for home delivery")
	ErrInvalidDeliveryMethod     = errors.New("invalid delivery method")
	ErrNotAuthenticated          = errors.New("not authenticated")
	ErrAdminConfirmationRequired = errors.New("admin order requires confirmation")
	ErrAdminCannotReview         = errors.New("administrator cannot submit reviews")
	ErrInvalidRating             = errors.New("rating must be between 1 and 5")
	ErrReviewTargetRequired      = errors.New("review requires a product and an order")
	ErrAlreadyReviewed           = errors.New("product already reviewed for this order")
	ErrInvalidQuantity           = errors.New("invalid quantity")
	ErrOrderNotCancelable        = errors.New("order cannot be canceled")
	ErrAdminAccountProtected     = errors.New("administrator account cannot be deleted")
	ErrEmptyProfileUpdate        = errors.New("profile update has no fields")
	ErrIncompleteAddress         = errors.New("street and city are required")
	ErrUnsettledCheckout         = errors.New("previous checkout needs attention")
)
