package core

// NewTotal sums the sold-line amounts.
func NewTotal(items []NewItem) float64 {
	var total float64
	for _, i := range items {
		total += i.Amount
	}
	return total
}

// OldTotal sums the value credited back for exchange lines.
func OldTotal(items []OldItem) float64 {
	var total float64
	for _, i := range items {
		total += i.Amount
	}
	return total
}

// ComputeTotals fills in the derived fields. TotalAmount is the sum of
// sold-line amounts only: old items are a separate cash-out to the
// customer, never a discount, so they do not reduce what is owed. Earlier
// builds of the register disagreed on this; this is the one place the
// rule lives.
func (t *Transaction) ComputeTotals() {
	t.TotalAmount = NewTotal(t.NewItems)
	t.NetAmountPaid = t.Payment.Total()
}
