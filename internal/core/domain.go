package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
	Yearly  Timeframe = "yearly"
)

type (
	TransactionType string

	// Timeframe is the aggregation window for dashboard trends.
	Timeframe string

	// Date is a calendar date. The backend returns full RFC 3339
	// timestamps; only the calendar portion is meaningful here.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"_id"`
		Amount      Money           `json:"amount"`
		Type        TransactionType `json:"type"`
		Category    string          `json:"category"`
		Description string          `json:"description"`
		Date        Date            `json:"date"`
		OwnerID     string          `json:"userId"`
	}

	User struct {
		ID        string `json:"_id"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatarUrl"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidTimeframe = errors.New("invalid timeframe")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// ParseTimeframe validates a user-supplied timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly, nil
	case Monthly:
		return Monthly, nil
	case Yearly:
		return Yearly, nil
	default:
		return "", ErrInvalidTimeframe
	}
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON encodes the date as an RFC 3339 UTC timestamp, the format
// the backend stores.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.UTC().Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON accepts both RFC 3339 timestamps and plain YYYY-MM-DD.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return ErrInvalidDate
}

// MonthLabel renders the month-year grouping label, e.g. "March 2024".
func (d Date) MonthLabel() string {
	return d.Format("January 2006")
}

func (tx Transaction) Validate() error {
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(tx.Category) == "" {
		return ErrEmptyCategory
	}
	if len(tx.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
