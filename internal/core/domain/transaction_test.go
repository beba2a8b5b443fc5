package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNetAmount(t *testing.T) {
	buy := Transaction{
		Type:     Buy,
		Quantity: decimal.NewFromInt(10),
		Price:    decimal.NewFromInt(100),
		Fee:      decimal.NewFromInt(5),
	}
	assert.True(t, buy.NetAmount().Equal(decimal.NewFromInt(1005)), "buy fee is added to the gross")

	sell := Transaction{
		Type:     Sell,
		Quantity: decimal.NewFromInt(4),
		Price:    decimal.NewFromInt(120),
		Fee:      decimal.NewFromInt(2),
	}
	assert.True(t, sell.NetAmount().Equal(decimal.NewFromInt(478)), "sell fee is subtracted from the gross")

	deposit := Transaction{Type: Deposit, Amount: decimal.NewFromInt(500)}
	assert.True(t, deposit.NetAmount().Equal(decimal.NewFromInt(500)), "cash entries use the declared amount")
}

func TestCashImpact(t *testing.T) {
	cases := []struct {
		name string
		txn  Transaction
		want int64
	}{
		{"deposit adds cash", Transaction{Type: Deposit, Amount: decimal.NewFromInt(100)}, 100},
		{"dividend adds cash", Transaction{Type: Dividend, Amount: decimal.NewFromInt(25)}, 25},
		{"interest adds cash", Transaction{Type: Interest, Amount: decimal.NewFromInt(10)}, 10},
		{"withdrawal removes cash", Transaction{Type: Withdrawal, Amount: decimal.NewFromInt(100)}, -100},
		{"fee removes cash", Transaction{Type: Fee, Amount: decimal.NewFromInt(9)}, -9},
		{
			"buy removes net cost",
			Transaction{Type: Buy, Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(100), Fee: decimal.NewFromInt(5)},
			-1005,
		},
		{
			"sell adds net proceeds",
			Transaction{Type: Sell, Quantity: decimal.NewFromInt(4), Price: decimal.NewFromInt(120), Fee: decimal.NewFromInt(2)},
			478,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, tc.txn.CashImpact().Equal(decimal.NewFromInt(tc.want)),
				"got %s, want %d", tc.txn.CashImpact(), tc.want)
		})
	}
}

func TestValidTransactionType(t *testing.T) {
	for _, valid := range []string{"BUY", "SELL", "DIVIDEND", "INTEREST", "DEPOSIT", "WITHDRAWAL", "FEE"} {
		assert.True(t, ValidTransactionType(valid), valid)
	}
	assert.False(t, ValidTransactionType("buy"), "types are uppercase on the wire")
	assert.False(t, ValidTransactionType("TRANSFER"))
	assert.False(t, ValidTransactionType(""))
}
