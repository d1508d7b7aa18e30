// Package models defines core data structures for knowledge entries, program matrices,
// conversations, and search results.
package models

import "strings"

// KnowledgeEntry is one guideline in the knowledge store. Entries are immutable once loaded.
type KnowledgeEntry struct {
	ID          string   `json:"id" yaml:"id"`
	Category    string   `json:"category" yaml:"category"`
	Subcategory string   `json:"subcategory" yaml:"subcategory"`
	Title       string   `json:"title" yaml:"title"`
	Content     string   `json:"content" yaml:"content"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	// Priority is 1..10 and scales the retrieval score by Priority/10.
	Priority int `json:"priority" yaml:"priority"`
}

// TransactionType selects which LTV column of a program matrix applies.
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionRateTerm TransactionType = "rateTerm"
	TransactionCashOut  TransactionType = "cashOut"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionPurchase, TransactionRateTerm, TransactionCashOut:
		return true
	}
	return false
}

// ProgramMatrix is a row of reference data describing one loan program tier.
type ProgramMatrix struct {
	ProgramName    string   `json:"programName" yaml:"programName"`
	Occupancy      string   `json:"occupancy" yaml:"occupancy"`
	CreditScoreMin int      `json:"creditScoreMin" yaml:"creditScoreMin"`
	LoanAmountMin  float64  `json:"loanAmountMin" yaml:"loanAmountMin"`
	LoanAmountMax  float64  `json:"loanAmountMax" yaml:"loanAmountMax"`
	IncomeDocType  string   `json:"incomeDocType" yaml:"incomeDocType"`
	DSCRMin        *float64 `json:"dscrMin,omitempty" yaml:"dscrMin,omitempty"`
	LTVPurchase    float64  `json:"ltvPurchase" yaml:"ltvPurchase"`
	LTVRateTerm    float64  `json:"ltvRateTerm" yaml:"ltvRateTerm"`
	LTVCashOut     float64  `json:"ltvCashOut" yaml:"ltvCashOut"`
	DTIMax         *float64 `json:"dtiMax,omitempty" yaml:"dtiMax,omitempty"`
	Reserves       string   `json:"reserves,omitempty" yaml:"reserves,omitempty"`
	PropertyTypes  []string `json:"propertyTypes" yaml:"propertyTypes"`
	EligibleStates []string `json:"eligibleStates" yaml:"eligibleStates"`
}

// LTV returns the maximum LTV for the given transaction type.
// Unknown types fall back to cash-out.
func (p *ProgramMatrix) LTV(t TransactionType) float64 {
	switch t {
	case TransactionPurchase:
		return p.LTVPurchase
	case TransactionRateTerm:
		return p.LTVRateTerm
	default:
		return p.LTVCashOut
	}
}

// Eligible reports whether the scenario passes the credit, loan amount, and occupancy filters.
// Occupancy matches when the program's occupancy contains it, ignoring case.
func (p *ProgramMatrix) Eligible(creditScore int, loanAmount float64, occupancy string) bool {
	if creditScore < p.CreditScoreMin {
		return false
	}
	if loanAmount < p.LoanAmountMin || loanAmount > p.LoanAmountMax {
		return false
	}
	return strings.Contains(strings.ToLower(p.Occupancy), strings.ToLower(occupancy))
}

// CompanyProfile describes the lender for the system prompt's knowledge base section.
type CompanyProfile struct {
	Company                 Company           `json:"company" yaml:"company"`
	GuidelinesEffectiveDate string            `json:"guidelinesEffectiveDate" yaml:"guidelinesEffectiveDate"`
	Products                []Product         `json:"products" yaml:"products"`
	BrokerPartnership       BrokerPartnership `json:"brokerPartnership" yaml:"brokerPartnership"`
	OperationalHighlights   []string          `json:"operationalHighlights" yaml:"operationalHighlights"`
}

// Company holds identifying details of the lender.
type Company struct {
	Name            string `json:"name" yaml:"name"`
	NMLS            string `json:"nmls,omitempty" yaml:"nmls,omitempty"`
	ServiceArea     string `json:"serviceArea" yaml:"serviceArea"`
	ClosingTimeline string `json:"closingTimeline" yaml:"closingTimeline"`
	Mission         string `json:"mission" yaml:"mission"`
}

// Product is a loan product offered by the lender.
type Product struct {
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	KeyFeatures []string `json:"keyFeatures" yaml:"keyFeatures"`
}

// BrokerPartnership lists partner benefits and tool links.
type BrokerPartnership struct {
	Benefits         []string `json:"benefits" yaml:"benefits"`
	SubmissionPortal string   `json:"submissionPortal" yaml:"submissionPortal"`
	EligibilityTool  string   `json:"eligibilityTool" yaml:"eligibilityTool"`
	PricingTool      string   `json:"pricingTool" yaml:"pricingTool"`
	ApplicationURL   string   `json:"applicationURL" yaml:"applicationURL"`
}
