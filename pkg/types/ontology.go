// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// OntologyClass is a class identifier from the custom Call Report ontology,
// written as "<prefix>:<Name>" (e.g. "cr-assets:TotalAssets").
type OntologyClass string

const (
	ClassTotalAssets            OntologyClass = "cr-assets:TotalAssets"
	ClassCashAndBalancesDue     OntologyClass = "cr-assets:CashAndBalancesDue"
	ClassSecurities             OntologyClass = "cr-assets:Securities"
	ClassLoansAndLeases         OntologyClass = "cr-assets:LoansAndLeases"
	ClassGoodwillAndIntangibles OntologyClass = "cr-assets:GoodwillAndIntangibles"

	ClassTotalLiabilities OntologyClass = "cr-liabilities:TotalLiabilities"
	ClassDeposits         OntologyClass = "cr-liabilities:Deposits"
	ClassBorrowedMoney    OntologyClass = "cr-liabilities:BorrowedMoney"

	ClassTotalEquityCapital OntologyClass = "cr-equity:TotalEquityCapital"
	ClassRetainedEarnings   OntologyClass = "cr-equity:RetainedEarnings"

	ClassNetIncome              OntologyClass = "cr-income:NetIncome"
	ClassInterestIncome         OntologyClass = "cr-income:InterestIncome"
	ClassInterestExpense        OntologyClass = "cr-expense:InterestExpense"
	ClassProvisionForLoanLosses OntologyClass = "cr-expense:ProvisionForLoanLosses"

	ClassTier1Capital       OntologyClass = "cr-capital:Tier1Capital"
	ClassRiskWeightedAssets OntologyClass = "cr-capital:RiskWeightedAssets"
	ClassTier1LeverageRatio OntologyClass = "cr-capital:Tier1LeverageRatio"

	ClassDate        OntologyClass = "cr-general:Date"
	ClassPercentage  OntologyClass = "cr-general:Percentage"
	ClassIdentifier  OntologyClass = "cr-general:Identifier"
	ClassOtherMetric OntologyClass = "cr-general:OtherMetric"
)

// ClassDefinition pairs a class with the meaning shown to the LLM.
type ClassDefinition struct {
	Class   OntologyClass `json:"class" yaml:"class"`
	Meaning string        `json:"meaning" yaml:"meaning"`
}

// OntologyGroup is a named group of classes as presented in the prompt.
type OntologyGroup struct {
	Name    string            `json:"name" yaml:"name"`
	Classes []ClassDefinition `json:"classes" yaml:"classes"`
}

// OntologyGroups is the fixed Call Report enumeration. The prompt renders it
// verbatim; nothing enforces that returned classes belong to it.
var OntologyGroups = []OntologyGroup{
	{
		Name: "Assets",
		Classes: []ClassDefinition{
			{ClassTotalAssets, "The total value of all assets."},
			{ClassCashAndBalancesDue, "Cash on hand and balances due from depository institutions."},
			{ClassSecurities, "Holdings of various securities."},
			{ClassLoansAndLeases, "Total value of all loans and leases."},
			{ClassGoodwillAndIntangibles, "Value of intangible assets."},
		},
	},
	{
		Name: "Liabilities",
		Classes: []ClassDefinition{
			{ClassTotalLiabilities, "Total obligations owed to creditors."},
			{ClassDeposits, "Total amount of all deposits."},
			{ClassBorrowedMoney, "Funds borrowed from other sources."},
		},
	},
	{
		Name: "Equity",
		Classes: []ClassDefinition{
			{ClassTotalEquityCapital, "Total value of ownership interest."},
			{ClassRetainedEarnings, "Portion of net income not paid out as dividends."},
		},
	},
	{
		Name: "Income & Expenses",
		Classes: []ClassDefinition{
			{ClassNetIncome, "Profit after all expenses and taxes."},
			{ClassInterestIncome, "Income from interest-earning assets."},
			{ClassInterestExpense, "Expense on interest-bearing liabilities."},
			{ClassProvisionForLoanLosses, "Expense set aside for potential bad loans."},
		},
	},
	{
		Name: "Capital & Risk",
		Classes: []ClassDefinition{
			{ClassTier1Capital, "Core measure of a bank's financial strength."},
			{ClassRiskWeightedAssets, "Assets weighted according to risk."},
			{ClassTier1LeverageRatio, "A measure of a bank's core capital to its total assets."},
		},
	},
	{
		Name: "General",
		Classes: []ClassDefinition{
			{ClassDate, "A specific date (e.g., reporting date, maturity date)."},
			{ClassPercentage, "A value expressed as a percentage (e.g., interest rate, ratio)."},
			{ClassIdentifier, "A specific identifier (e.g., CUSIP, Ticker)."},
			{ClassOtherMetric, "A financial metric not fitting other categories."},
		},
	},
}

var knownClasses = func() map[OntologyClass]bool {
	m := make(map[OntologyClass]bool)
	for _, g := range OntologyGroups {
		for _, c := range g.Classes {
			m[c.Class] = true
		}
	}
	return m
}()

// IsKnownClass reports whether c is part of the Call Report enumeration.
// It is used for display only; results are never filtered by it.
func IsKnownClass(c string) bool {
	return knownClasses[OntologyClass(c)]
}
