package core

// Summary is the daily or date-range roll-up shown on the register's
// report screens: weights by material, the billable slice, and how the
// money came in.
type Summary struct {
	NewWeight      map[Material]float64 `json:"new_weight"`
	OldWeight      map[Material]float64 `json:"old_weight"`
	BillableWeight map[Material]float64 `json:"billable_weight"`
	BillableAmount float64              `json:"billable_amount"`
	OldAmount      float64              `json:"old_amount"`
	Payments       Payment              `json:"payments"`
	TotalAmount    float64              `json:"total_amount"`
	NetAmountPaid  float64              `json:"net_amount_paid"`
	Transactions   int                  `json:"transactions"`
}

func NewSummary() Summary {
	return Summary{
		NewWeight:      make(map[Material]float64),
		OldWeight:      make(map[Material]float64),
		BillableWeight: make(map[Material]float64),
	}
}

// Add folds one transaction into the summary. A sold line contributes to
// its material's new weight, and to the billable buckets when flagged; an
// exchange line contributes only to old weight and old amount.
func (s *Summary) Add(t Transaction) {
	for _, i := range t.NewItems {
		s.NewWeight[i.Material] += i.Weight
		if i.Billable {
			s.BillableWeight[i.Material] += i.Weight
			s.BillableAmount += i.Amount
		}
	}
	for _, i := range t.OldItems {
		s.OldWeight[i.Material] += i.Weight
		s.OldAmount += i.Amount
	}
	s.Payments.Cash += t.Payment.Cash
	s.Payments.Card += t.Payment.Card
	s.Payments.UPI += t.Payment.UPI
	s.TotalAmount += t.TotalAmount
	s.NetAmountPaid += t.NetAmountPaid
	s.Transactions++
}

// Summarize folds already-loaded transactions; it never goes back to the
// store per line.
func Summarize(txs []Transaction) Summary {
	s := NewSummary()
	for _, t := range txs {
		s.Add(t)
	}
	return s
}

// CodeGroup accumulates the sold lines sharing one item code. The code is
// the grouping key, not the name: two codes may share a display name.
type CodeGroup struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Count       int       `json:"count"`
	TotalWeight float64   `json:"total_weight"`
	TotalAmount float64   `json:"total_amount"`
	Items       []NewItem `json:"items"`
}

// Breakdown splits sold lines into billable and non-billable groups,
// each keyed by code in first-seen order.
type Breakdown struct {
	Billable    []CodeGroup `json:"billable"`
	NonBillable []CodeGroup `json:"non_billable"`
}

// BreakdownByCode groups every sold line of the given transactions by its
// code, keeping per-line detail for drill-down views.
func BreakdownByCode(txs []Transaction) Breakdown {
	type bucket struct {
		groups []CodeGroup
		index  map[string]int
	}
	billable := bucket{index: make(map[string]int)}
	nonBillable := bucket{index: make(map[string]int)}

	add := func(b *bucket, i NewItem) {
		idx, ok := b.index[i.Code]
		if !ok {
			idx = len(b.groups)
			b.index[i.Code] = idx
			b.groups = append(b.groups, CodeGroup{Code: i.Code, Name: i.Name})
		}
		g := &b.groups[idx]
		g.Count++
		g.TotalWeight += i.Weight
		g.TotalAmount += i.Amount
		g.Items = append(g.Items, i)
	}

	for _, t := range txs {
		for _, i := range t.NewItems {
			if i.Billable {
				add(&billable, i)
			} else {
				add(&nonBillable, i)
			}
		}
	}
	return Breakdown{Billable: billable.groups, NonBillable: nonBillable.groups}
}
