package domain

// ItemUpdate is a single-field edit of an invoice item. The set of
// implementations is closed to this package.
type ItemUpdate interface {
	itemUpdate()
}

type SetItemDescription struct{ Description string }

type SetItemQuantity struct{ Quantity float64 }

type SetItemRate struct{ Rate Money }

func (SetItemDescription) itemUpdate() {}
func (SetItemQuantity) itemUpdate()    {}
func (SetItemRate) itemUpdate()        {}
