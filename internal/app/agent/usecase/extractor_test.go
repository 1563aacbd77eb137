package usecase

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/JoeShih716/go-bank-agent/internal/app/agent/domain"
)

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantOK     bool
		wantAction domain.Action
		wantParams domain.Params
	}{
		{
			name:       "direct json",
			raw:        `{"action":"get_transactions","params":{"n":2}}`,
			wantOK:     true,
			wantAction: domain.ActionGetTransactions,
			wantParams: domain.Params{"n": json.Number("2")},
		},
		{
			name:       "action is normalized",
			raw:        `{"action":"  GET_Balance ","params":{}}`,
			wantOK:     true,
			wantAction: domain.ActionGetBalance,
			wantParams: domain.Params{},
		},
		{
			name:       "missing params becomes empty map",
			raw:        `{"action":"get_customer_info"}`,
			wantOK:     true,
			wantAction: domain.ActionGetCustomerInfo,
			wantParams: domain.Params{},
		},
		{
			name:       "code fences are stripped",
			raw:        "```json\n{\"action\":\"freeze_account\",\"params\":{}}\n```",
			wantOK:     true,
			wantAction: domain.ActionFreezeAccount,
			wantParams: domain.Params{},
		},
		{
			name:       "clarify keeps params verbatim even when keywords appear",
			raw:        `{"action":"clarify","params":{"message":"balance or transfer?","extra":true}}`,
			wantOK:     true,
			wantAction: domain.ActionClarify,
			wantParams: domain.Params{"message": "balance or transfer?", "extra": true},
		},
		{
			name:   "explicit unknown action is rejected without keyword fallback",
			raw:    `{"action":"delete_account","params":{"note":"check my balance"}}`,
			wantOK: false,
		},
		{
			name:       "embedded json inside prose",
			raw:        `Sure! Here you go: {"action": "transfer", "params": {"to": "CUST002", "amount": "$50"}} hope that helps`,
			wantOK:     true,
			wantAction: domain.ActionTransfer,
			wantParams: domain.Params{"to": "CUST002", "amount": "$50"},
		},
		{
			name:       "embedded unknown action falls through to keywords",
			raw:        `I think {"action": "wire_money"} but you asked about balance`,
			wantOK:     true,
			wantAction: domain.ActionGetBalance,
			wantParams: domain.Params{},
		},
		{
			name:       "trailing garbage after object is not direct json",
			raw:        `{"action":"get_balance"}}`,
			wantOK:     true,
			wantAction: domain.ActionGetBalance,
			wantParams: domain.Params{},
		},
		{
			name:       "keyword send transfer",
			raw:        "I want to send $200 to CUST002",
			wantOK:     true,
			wantAction: domain.ActionTransfer,
			wantParams: domain.Params{"to": "CUST002", "amount": decimal.RequireFromString("200")},
		},
		{
			name:       "keyword transfer lower-case destination",
			raw:        "please transfer 12.5 dollars to cust004",
			wantOK:     true,
			wantAction: domain.ActionTransfer,
			wantParams: domain.Params{"to": "CUST004", "amount": decimal.RequireFromString("12.5")},
		},
		{
			name:       "keyword transfer without amount or destination",
			raw:        "Transfer money to my friend",
			wantOK:     true,
			wantAction: domain.ActionTransfer,
			wantParams: domain.Params{"to": domain.UnknownDestination, "amount": decimal.Zero},
		},
		{
			name:       "keyword transfer keeps long digit run out of float",
			raw:        "please transfer " + strings.Repeat("9", 400) + " to cust002",
			wantOK:     true,
			wantAction: domain.ActionTransfer,
			wantParams: domain.Params{"to": "CUST002", "amount": decimal.Zero},
		},
		{
			name:   "sender is not send",
			raw:    "who is the sender of this message",
			wantOK: false,
		},
		{
			name:       "sender with freeze is freeze",
			raw:        "the sender asked to freeze",
			wantOK:     true,
			wantAction: domain.ActionFreezeAccount,
			wantParams: domain.Params{},
		},
		{
			name:       "keyword clarify wins over balance",
			raw:        "Please clarify if you want your balance",
			wantOK:     true,
			wantAction: domain.ActionClarify,
			wantParams: domain.Params{"message": ClarifyMessage},
		},
		{
			name:       "keyword priority balance before transaction",
			raw:        "balance and transactions",
			wantOK:     true,
			wantAction: domain.ActionGetBalance,
			wantParams: domain.Params{},
		},
		{
			name:       "keyword transactions",
			raw:        "Show my recent Transactions",
			wantOK:     true,
			wantAction: domain.ActionGetTransactions,
			wantParams: domain.Params{"n": domain.DefaultTransactionCount},
		},
		{
			name:       "keyword details",
			raw:        "my account details please",
			wantOK:     true,
			wantAction: domain.ActionGetCustomerInfo,
			wantParams: domain.Params{},
		},
		{
			name:       "keyword freeze",
			raw:        "FREEZE everything",
			wantOK:     true,
			wantAction: domain.ActionFreezeAccount,
			wantParams: domain.Params{},
		},
		{
			name:   "nothing recognizable",
			raw:    "hello there",
			wantOK: false,
		},
		{
			name:   "empty",
			raw:    "",
			wantOK: false,
		},
	}

	ex := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, ok := ex.Extract(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, domain.Action(""), intent.Action)
				assert.Empty(t, intent.Params)
				return
			}
			assert.Equal(t, tt.wantAction, intent.Action)
			assert.Equal(t, tt.wantParams, intent.Params)
		})
	}
}
