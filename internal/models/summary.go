package models

// TransactionSummary is computed fresh for every query over an arbitrarily
// filtered transaction set.
type TransactionSummary struct {
	TotalIncome  Amount        `json:"totalIncome"`
	TotalExpense Amount        `json:"totalExpense"`
	Balance      Amount        `json:"balance"` // TotalIncome - TotalExpense, may be negative
	Transactions []Transaction `json:"transactions"`
}
