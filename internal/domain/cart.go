package domain

import (
	"fmt"
	"time"
)

type Cart struct {
	ID         string
	UserID     string
	Items      []CartItem
	TotalCents int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartItem is one line of a cart. PriceCents is captured when the product is
// first added and is not refreshed afterwards.
type CartItem struct {
	ProductID  string
	Quantity   int
	PriceCents int64
	Product    *Product
}

type QuantityChange string

const (
	QuantityIncrease QuantityChange = "increase"
	QuantityDecrease QuantityChange = "decrease"
)

func ParseQuantityChange(s string) (QuantityChange, error) {
	switch QuantityChange(s) {
	case QuantityIncrease, QuantityDecrease:
		return QuantityChange(s), nil
	}
	return "", fmt.Errorf("%w: quantity change %q", ErrInvalidInput, s)
}

// AddProduct appends p at quantity 1, or bumps the quantity of its existing line.
func (c *Cart) AddProduct(p Product) {
	if i := c.indexOf(p.ID); i >= 0 {
		c.Items[i].Quantity++
		c.Recalculate()
		return
	}
	product := p
	c.Items = append(c.Items, CartItem{
		ProductID:  p.ID,
		Quantity:   1,
		PriceCents: p.PriceCents,
		Product:    &product,
	})
	c.Recalculate()
}

// ChangeQuantity applies an increase or decrease. A decrease never takes a
// line below 1; removing a line is done with Remove.
func (c *Cart) ChangeQuantity(productID string, change QuantityChange) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	switch change {
	case QuantityIncrease:
		c.Items[i].Quantity++
	case QuantityDecrease:
		if c.Items[i].Quantity > 1 {
			c.Items[i].Quantity--
		}
	default:
		return fmt.Errorf("%w: quantity change %q", ErrInvalidInput, change)
	}
	c.Recalculate()
	return nil
}

// Remove drops the line for productID and reports whether one existed.
func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.Recalculate()
	return true
}

// Recalculate derives TotalCents from the lines.
func (c *Cart) Recalculate() {
	var total int64
	for _, it := range c.Items {
		total += it.PriceCents * int64(it.Quantity)
	}
	c.TotalCents = total
}

func (c *Cart) indexOf(productID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
