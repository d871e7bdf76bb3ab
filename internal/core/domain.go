package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Material classifies an item for weight aggregation.
type Material string

const (
	Gold   Material = "Gold"
	Silver Material = "Silver"
	Other  Material = "Other"
)

var (
	ErrUnknownItemCode     = errors.New("unknown item code")
	ErrInvalidQuantity     = errors.New("weight and amount must be positive")
	ErrInvalidMaterial     = errors.New("invalid material")
	ErrNegativePayment     = errors.New("payment amounts must not be negative")
	ErrEmptyTransaction    = errors.New("transaction has no items")
	ErrLedgerCommitted     = errors.New("ledger already committed")
	ErrInvalidCatalogEntry = errors.New("invalid catalog entry")
)

// ParseMaterial resolves a material name. The one-letter forms are the
// values older database files and import sheets used.
func ParseMaterial(s string) (Material, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GOLD", "G":
		return Gold, nil
	case "SILVER", "S":
		return Silver, nil
	case "OTHER", "O":
		return Other, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMaterial, s)
}

func (m Material) Valid() bool {
	return m == Gold || m == Silver || m == Other
}

// Exchangeable reports whether the material is accepted for old items.
// Exchange items carry no catalog code and are always gold or silver.
func (m Material) Exchangeable() bool {
	return m == Gold || m == Silver
}

// Date is a calendar day, the granularity transactions are reported at.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// CatalogEntry maps an item code to its display name and material.
// LastUsed is zero until the code is first consumed by a committed sale.
type CatalogEntry struct {
	Code     string    `json:"code"`
	Name     string    `json:"name"`
	Material Material  `json:"material"`
	LastUsed time.Time `json:"last_used"`
}

func (e CatalogEntry) Validate() error {
	if strings.TrimSpace(e.Code) == "" || strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: code and name are required", ErrInvalidCatalogEntry)
	}
	if !e.Material.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMaterial, e.Material)
	}
	return nil
}

// NewItem is one sold line of a transaction. Name and material are copied
// from the catalog entry at commit time so later catalog edits never
// rewrite history.
type NewItem struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Material Material `json:"material"`
	Weight   float64  `json:"weight"`
	Amount   float64  `json:"amount"`
	Billable bool     `json:"is_billable"`
}

func (i NewItem) Validate() error {
	if strings.TrimSpace(i.Code) == "" {
		return ErrUnknownItemCode
	}
	if !i.Material.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMaterial, i.Material)
	}
	if i.Weight <= 0 || i.Amount <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// OldItem is an exchange line: an item taken in from the customer, valued
// and credited back. No catalog code.
type OldItem struct {
	Material Material `json:"material"`
	Weight   float64  `json:"weight"`
	Amount   float64  `json:"amount"`
}

func (i OldItem) Validate() error {
	if !i.Material.Exchangeable() {
		return fmt.Errorf("%w: %q", ErrInvalidMaterial, i.Material)
	}
	if i.Weight <= 0 || i.Amount <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Payment is the cash/card/UPI split. Partial payment is allowed; the
// split is never required to cover TotalAmount.
type Payment struct {
	Cash float64 `json:"cash"`
	Card float64 `json:"card"`
	UPI  float64 `json:"upi"`
}

func (p Payment) Validate() error {
	if p.Cash < 0 || p.Card < 0 || p.UPI < 0 {
		return ErrNegativePayment
	}
	return nil
}

func (p Payment) Total() float64 {
	return p.Cash + p.Card + p.UPI
}

// Transaction is one committed sale: sold lines, exchange lines and the
// payment split. Line order is insertion order and is preserved for
// display.
type Transaction struct {
	ID            int64     `json:"id"`
	Date          Date      `json:"date"`
	Timestamp     time.Time `json:"timestamp"`
	Comments      string    `json:"comments"`
	NewItems      []NewItem `json:"new_items"`
	OldItems      []OldItem `json:"old_items"`
	Payment       Payment   `json:"payment"`
	TotalAmount   float64   `json:"total_amount"`
	NetAmountPaid float64   `json:"net_amount_paid"`
}

func (t Transaction) Validate() error {
	if len(t.NewItems) == 0 && len(t.OldItems) == 0 {
		return ErrEmptyTransaction
	}
	for _, i := range t.NewItems {
		if err := i.Validate(); err != nil {
			return err
		}
	}
	for _, i := range t.OldItems {
		if err := i.Validate(); err != nil {
			return err
		}
	}
	return t.Payment.Validate()
}
