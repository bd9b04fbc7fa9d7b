package domain

// OrderLine pairs a product with a quantity inside a cart. The product is
// not validated for existence here; unknown products surface at pricing
// time.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

// Cart is the mutable set of order lines for one checkout session, ordered
// by insertion, with at most one line per product. All transitions are
// total: inputs are normalized (merge, clamp, no-op on absent) and none of
// them can fail.
type Cart struct {
	Lines  []OrderLine
	Member bool
}

// Add increments the quantity of an existing line for productID, or
// appends a new line with quantity 1.
func (c *Cart) Add(productID int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity++
			return
		}
	}
	c.Lines = append(c.Lines, OrderLine{ProductID: productID, Quantity: 1})
}

// UpdateQuantity adds delta (possibly negative) to the line's quantity,
// clamped to a minimum of 1. Quantity can never reach 0 through this
// operation; Remove is the only way to drop a line. No-op if no line
// exists for productID.
func (c *Cart) UpdateQuantity(productID int64, delta int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			q := c.Lines[i].Quantity + delta
			if q < 1 {
				q = 1
			}
			c.Lines[i].Quantity = q
			return
		}
	}
}

// Remove deletes the line for productID if present, preserving the order
// of the remaining lines. No-op otherwise.
func (c *Cart) Remove(productID int64) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart and resets the membership flag. Dropping
// membership together with the lines is a specified transition of the
// cart state machine, not a side effect: a cleared cart starts a fresh
// order with no member claim attached.
func (c *Cart) Clear() {
	c.Lines = nil
	c.Member = false
}

// SetMember records the caller-supplied membership claim. The flag is not
// authenticated here.
func (c *Cart) SetMember(flag bool) {
	c.Member = flag
}

// TotalQuantity is the sum of quantities across all lines.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// CloneLines returns a copy of the line slice so callers can read cart
// contents without holding the owner's lock.
func (c *Cart) CloneLines() []OrderLine {
	if len(c.Lines) == 0 {
		return nil
	}
	lines := make([]OrderLine, len(c.Lines))
	copy(lines, c.Lines)
	return lines
}
