package models

import "time"

// TransactionType is the cash-flow direction of a transaction.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Sign is the direction assigned to a RawTransaction by its grammar.
type Sign int

const (
	SignInflow  Sign = 1
	SignOutflow Sign = -1
)

// RawTransaction is the unnormalized output of one grammar for one line.
type RawTransaction struct {
	Location    string
	Date        string
	Description string
	Amount      string
	Sign        Sign
	// Reversal is set by grammars that keep a negative amount token as a
	// credit back against prior spend.
	Reversal bool
	Grammar  string
	Line     int
}

// Transaction is a normalized, categorized transaction.
//
// Amount is always the unsigned magnitude. SignedAmount is positive for
// income and negative for expenses, reversals included. A reversal is an
// expense flagged Reversal that credits back prior spend; aggregates
// subtract it from expenses.
type Transaction struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Location     string          `json:"location,omitempty"`
	Amount       float64         `json:"amount"`
	SignedAmount float64         `json:"signedAmount"`
	Category     string          `json:"category"`
	Type         TransactionType `json:"type"`
	Reversal     bool            `json:"reversal,omitempty"`
}

// IsReversal reports whether the transaction credits back a prior expense.
func (t Transaction) IsReversal() bool {
	return t.Type == TypeExpense && t.Reversal
}

// NetExpense is the transaction's contribution to total expenses: the
// amount for an expense, minus the amount for a reversal, zero for income.
func (t Transaction) NetExpense() float64 {
	switch {
	case t.Type != TypeExpense:
		return 0
	case t.Reversal:
		return -t.Amount
	}
	return t.Amount
}
