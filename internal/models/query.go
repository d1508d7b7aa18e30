package models

import (
	"fmt"
	"strings"
)

// SearchQuery represents a knowledge search request.
type SearchQuery struct {
	Query string `json:"query"`
	// Fuzzy retries with typo tolerance when the exact search finds nothing.
	Fuzzy bool `json:"fuzzy,omitempty"`
}

// ProgramQuery is a borrower scenario for the program matcher.
type ProgramQuery struct {
	CreditScore     int             `json:"creditScore"`
	LoanAmount      float64         `json:"loanAmount"`
	Occupancy       string          `json:"occupancy"`
	TransactionType TransactionType `json:"transactionType"`
}

// Validate checks the scenario and defaults the transaction type to purchase.
func (q *ProgramQuery) Validate() error {
	if q.CreditScore <= 0 {
		return fmt.Errorf("creditScore must be positive")
	}
	if q.LoanAmount <= 0 {
		return fmt.Errorf("loanAmount must be positive")
	}
	q.Occupancy = strings.TrimSpace(q.Occupancy)
	if q.TransactionType == "" {
		q.TransactionType = TransactionPurchase
	}
	if !q.TransactionType.Valid() {
		return fmt.Errorf("transactionType must be one of purchase, rateTerm, cashOut")
	}
	return nil
}

// PromptRequest is the body of POST /api/v1/prompt.
type PromptRequest struct {
	Query string `json:"query"`
}

// PromptResponse carries a composed system prompt and the entries it was built from.
type PromptResponse struct {
	SystemPrompt string           `json:"systemPrompt"`
	Entries      []KnowledgeEntry `json:"entries"`
}
