package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestProgramQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *ProgramQuery
		wantErr bool
	}{
		{"valid", &ProgramQuery{CreditScore: 720, LoanAmount: 500000, Occupancy: "investor", TransactionType: TransactionCashOut}, false},
		{"defaults transaction type", &ProgramQuery{CreditScore: 700, LoanAmount: 200000}, false},
		{"zero credit score", &ProgramQuery{LoanAmount: 200000}, true},
		{"zero loan amount", &ProgramQuery{CreditScore: 700}, true},
		{"unknown transaction", &ProgramQuery{CreditScore: 700, LoanAmount: 1, TransactionType: "heloc"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.query.TransactionType == "" {
				t.Error("expected transaction type to be defaulted")
			}
		})
	}
}

func TestProgramMatrix_LTVAndEligible(t *testing.T) {
	p := &ProgramMatrix{
		Occupancy:      "Investor / Non-Owner",
		CreditScoreMin: 700,
		LoanAmountMin:  100000,
		LoanAmountMax:  1500000,
		LTVPurchase:    80,
		LTVRateTerm:    78,
		LTVCashOut:     75,
	}
	if p.LTV(TransactionPurchase) != 80 || p.LTV(TransactionRateTerm) != 78 || p.LTV(TransactionCashOut) != 75 {
		t.Errorf("unexpected LTV mapping")
	}
	if !p.Eligible(700, 100000, "INVESTOR") {
		t.Error("boundary values and case-insensitive occupancy should be eligible")
	}
	if p.Eligible(699, 200000, "investor") {
		t.Error("credit below minimum should be ineligible")
	}
	if p.Eligible(750, 1500001, "investor") {
		t.Error("loan above maximum should be ineligible")
	}
	if p.Eligible(750, 200000, "primary") {
		t.Error("occupancy mismatch should be ineligible")
	}
}

func TestMillis_JSONRoundTrip(t *testing.T) {
	ts := NewMillis(time.Date(2025, 3, 4, 5, 6, 7, 891234567, time.UTC))
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "1741064767891" {
		t.Errorf("marshal = %s", data)
	}
	var back Millis
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(ts.Time) {
		t.Errorf("round trip = %v, want %v", back.Time, ts.Time)
	}
}

func TestToChatMessages_dropsEmptyAssistant(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "dscr?"},
		{Role: RoleAssistant, Content: ""},
	}
	out := ToChatMessages(msgs)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[2].Content != "dscr?" {
		t.Errorf("last = %+v", out[2])
	}
}

func TestConversation_CloneIsIndependent(t *testing.T) {
	c := &Conversation{ID: "c1", Messages: []Message{{ID: "m1", Content: "a"}}}
	cp := c.Clone()
	cp.Messages[0].Content = "b"
	if c.Messages[0].Content != "a" {
		t.Error("clone shares message storage")
	}
	if c.LastAssistant() != -1 {
		t.Error("no assistant message expected")
	}
}
