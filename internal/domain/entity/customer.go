package entity

// Customer is the user-directory projection of a customer, keyed by CPF.
type Customer struct {
	CPF       string
	FirstName string
	LastName  string
	Email     string
}

// BalanceSummary is the read-side aggregation of a customer's cashback records.
type BalanceSummary struct {
	Balance       int64 // Sum of available cashback over AVAILABLE records
	LastRescues   int64 // Sum of total cashback credited in the trailing 2 months
	CloseToExpire int64 // Available cashback expiring within the next 30 days
}
