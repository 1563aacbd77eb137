package usecase

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

func TestValidator_Validate(t *testing.T) {
	limitMsg := "Transfer amount exceeds demo limit of $1000."

	tests := []struct {
		name   string
		intent domain.Intent
		want   domain.Decision
	}{
		{"balance admitted", domain.NewIntent(domain.ActionGetBalance, nil), domain.Admit()},
		{"freeze admitted", domain.NewIntent(domain.ActionFreezeAccount, nil), domain.Admit()},
		{"unknown admitted", domain.NewIntent("something_else", nil), domain.Admit()},
		{
			"self transfer",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST001", "amount": 10}),
			domain.Reject(domain.MsgSelfTransfer),
		},
		{
			"over limit",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": json.Number("1000.01")}),
			domain.Reject(limitMsg),
		},
		{
			"exactly limit",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": "$1000"}),
			domain.Admit(),
		},
		{
			"zero",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": 0}),
			domain.Reject(domain.MsgInvalidAmount),
		},
		{
			"negative",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": -5.0}),
			domain.Reject(domain.MsgInvalidAmount),
		},
		{
			"garbage amount coerces to zero",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": "lots"}),
			domain.Reject(domain.MsgInvalidAmount),
		},
		{
			"missing amount",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002"}),
			domain.Reject(domain.MsgInvalidAmount),
		},
		{
			"huge exponent is malformed",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": "1e900000000"}),
			domain.Reject(domain.MsgInvalidAmount),
		},
		{
			"sub-cent amount is malformed",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": "0.00001"}),
			domain.Reject(domain.MsgInvalidAmount),
		},
		{
			"infinite float is malformed",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": math.Inf(1)}),
			domain.Reject(domain.MsgInvalidAmount),
		},
		{
			"valid",
			domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": "$99.99"}),
			domain.Admit(),
		},
	}

	v := NewValidator(decimal.Zero)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate("CUST001", tt.intent))
		})
	}
}

func TestValidator_CustomLimit(t *testing.T) {
	v := NewValidator(decimal.NewFromInt(250))
	assert.True(t, v.TransferLimit().Equal(decimal.NewFromInt(250)))

	got := v.Validate("CUST001", domain.NewIntent(domain.ActionTransfer, domain.Params{"to": "CUST002", "amount": 300}))
	assert.False(t, got.Admit)
	assert.Equal(t, "Transfer amount exceeds demo limit of $250.", got.Reason)
}

func TestValidator_ExtractedLongDigitRun(t *testing.T) {
	ex := NewExtractor(nil)
	intent, ok := ex.Extract("please transfer " + strings.Repeat("9", 400) + " to cust002")
	assert.True(t, ok)
	assert.Equal(t, domain.ActionTransfer, intent.Action)

	v := NewValidator(decimal.Zero)
	assert.NotPanics(t, func() {
		assert.Equal(t, domain.Reject(domain.MsgInvalidAmount), v.Validate("CUST001", intent))
	})
}

func TestValidator_HugeExponentFromModelReturnsQuickly(t *testing.T) {
	ex := NewExtractor(nil)
	intent, ok := ex.Extract(`{"action":"transfer","params":{"to":"CUST002","amount":"1e900000000"}}`)
	assert.True(t, ok)

	v := NewValidator(decimal.Zero)
	done := make(chan domain.Decision, 1)
	go func() { done <- v.Validate("CUST001", intent) }()

	select {
	case got := <-done:
		assert.Equal(t, domain.Reject(domain.MsgInvalidAmount), got)
	case <-time.After(2 * time.Second):
		t.Fatal("validate did not return")
	}
}
