package models

// TransactionType classifies a transaction as money in or money out.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// Currency is an ISO-ish currency code the tracker understands.
type Currency string

const (
	USD Currency = "USD"
	ARS Currency = "ARS"
	EUR Currency = "EUR"
)

// Language selects the UI language stored in settings.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// Transaction is a single income or expense entry.
type Transaction struct {
	Date         string          `json:"date"`
	Amount       float64         `json:"amount"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Type         TransactionType `json:"type"`
	Currency     Currency        `json:"currency"`
	ExchangeRate float64         `json:"exchangeRate"`
	USDAmount    float64         `json:"usdAmount"`
}

// CreditCardPurchase is an installment purchase tracked against a card.
type CreditCardPurchase struct {
	Description       string   `json:"description"`
	TotalAmount       float64  `json:"totalAmount"`
	InstallmentsTotal int      `json:"installmentsTotal"`
	InstallmentsPaid  int      `json:"installmentsPaid"`
	PurchaseDate      string   `json:"purchaseDate"`
	CardName          string   `json:"cardName"`
	Currency          Currency `json:"currency,omitempty"`
}

// RecurringItem is a recurring bill or income expected every month.
type RecurringItem struct {
	Name         string   `json:"name"`
	Amount       float64  `json:"amount"`
	IsVariable   bool     `json:"isVariable"`
	Category     string   `json:"category"`
	DayOfMonth   int      `json:"dayOfMonth"`
	Currency     Currency `json:"currency,omitempty"`
	LastPaidDate string   `json:"lastPaidDate,omitempty"`
}

// AssetType classifies where an asset is held.
type AssetType string

const (
	AssetSavings    AssetType = "SAVINGS"
	AssetInvestment AssetType = "INVESTMENT"
	AssetCash       AssetType = "CASH"
)

// Asset is a savings/investment/cash position.
type Asset struct {
	Name     string    `json:"name"`
	Value    float64   `json:"value"`
	Type     AssetType `json:"type"`
	Currency Currency  `json:"currency,omitempty"`
}

// BudgetCategory is a monthly spending limit for one category.
type BudgetCategory struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
}

// Category is a user-defined transaction category.
type Category struct {
	Name   string          `json:"name"`
	Icon   string          `json:"icon"`
	Color  string          `json:"color"`
	Budget float64         `json:"budget,omitempty"`
	Type   TransactionType `json:"type"`
}

// AppSettings is the single settings row (id SettingsRecordID).
type AppSettings struct {
	Language        Language             `json:"language"`
	MainCurrency    Currency             `json:"mainCurrency"`
	ExchangeRates   map[Currency]float64 `json:"exchangeRates"`
	LastRatesUpdate int64                `json:"lastRatesUpdate,omitempty"`
}

// FinancialState is the aggregate local replica view handed to the
// application shell. Slices hold the raw records so base fields (ids,
// timestamps) stay available next to the decoded payloads.
type FinancialState struct {
	Transactions []Record
	CreditCards  []Record
	Recurring    []Record
	Assets       []Record
	Budgets      []Record
	Categories   []Record
	Settings     *Record
}

// DefaultSettings returns the settings payload seeded on first run.
func DefaultSettings() AppSettings {
	return AppSettings{
		Language:     English,
		MainCurrency: USD,
		ExchangeRates: map[Currency]float64{
			USD: 1,
			EUR: 0.92,
			ARS: 1000,
		},
	}
}
