package sales

import "errors"

var (
	ErrMissingProducts    = errors.New("missing required fields: at least one product is required")
	ErrIncompleteCustomer = errors.New("incomplete customer data: name, id number and address are required")
	ErrInvalidLine        = errors.New("every product needs a reference and a quantity greater than zero")
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrSaleNotFound       = errors.New("sale not found")
	ErrInvalidDate        = errors.New("invalid date")
)

// IsValidation reports whether err was raised before anything was written.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingProducts) ||
		errors.Is(err, ErrIncompleteCustomer) ||
		errors.Is(err, ErrInvalidLine) ||
		errors.Is(err, ErrInvalidDate)
}
