package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type PaymentType int

const (
	PaymentCash PaymentType = iota + 1
	PaymentCard
	PaymentDebit
	PaymentCredit
	PaymentBankTransfer
)

var paymentTypeNames = map[PaymentType]string{
	PaymentCash:         "CASH",
	PaymentCard:         "CARD",
	PaymentDebit:        "DEBIT",
	PaymentCredit:       "CREDIT",
	PaymentBankTransfer: "BANK_TRANSFER",
}

func (p PaymentType) String() string {
	if name, ok := paymentTypeNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PaymentType(%d)", int(p))
}

func (p *PaymentType) UnmarshalJSON(data []byte) error {
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal payment type: %w", err)
	}
	pt := PaymentType(v)
	if _, ok := paymentTypeNames[pt]; !ok {
		return fmt.Errorf("unmarshal payment type: unknown value %d", v)
	}
	*p = pt
	return nil
}

func (p PaymentType) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(p))
}

// Bill is the receipt issued by the backend for an order.
type Bill struct {
	ID          int64           `json:"id"`
	BillNumber  string          `json:"bill_number"`
	Date        string          `json:"date"`
	Total       decimal.Decimal `json:"total"`
	Discount    decimal.Decimal `json:"discount"`
	PaymentType PaymentType     `json:"payment_type"`
	ClientID    int64           `json:"client_id"`
	OrderID     int64           `json:"order_id"`
}
