package model

// Enum values live here and nowhere else: services, ingestion and handlers all
// validate against the same definitions.

type BillingCycle string

const (
	CycleDaily     BillingCycle = "daily"
	CycleWeekly    BillingCycle = "weekly"
	CycleMonthly   BillingCycle = "monthly"
	CycleQuarterly BillingCycle = "quarterly"
	CycleYearly    BillingCycle = "yearly"
)

var cyclesPerYear = map[BillingCycle]int{
	CycleDaily:     365,
	CycleWeekly:    52,
	CycleMonthly:   12,
	CycleQuarterly: 4,
	CycleYearly:    1,
}

func (c BillingCycle) Valid() bool {
	_, ok := cyclesPerYear[c]
	return ok
}

// CyclesPerYear returns how many charges a year this cycle produces.
func (c BillingCycle) CyclesPerYear() int {
	return cyclesPerYear[c]
}

type SubscriptionStatus string

const (
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusPaused    SubscriptionStatus = "paused"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusExpired   SubscriptionStatus = "expired"
	SubStatusTrial     SubscriptionStatus = "trial"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubStatusActive, SubStatusPaused, SubStatusCancelled, SubStatusExpired, SubStatusTrial:
		return true
	}
	return false
}

type UsagePattern string

const (
	UsageHigh   UsagePattern = "high"
	UsageMedium UsagePattern = "medium"
	UsageLow    UsagePattern = "low"
	UsageNone   UsagePattern = "none"
)

type AlertType string

const (
	AlertFraud            AlertType = "fraud"
	AlertUnused           AlertType = "unused"
	AlertPriceIncrease    AlertType = "price_increase"
	AlertRenewal          AlertType = "renewal"
	AlertDuplicate        AlertType = "duplicate"
	AlertUnusualSpending  AlertType = "unusual_spending"
	AlertPaymentFailed    AlertType = "payment_failed"
	AlertTrialEnding      AlertType = "trial_ending"
	AlertCancellationRisk AlertType = "cancellation_risk"
	AlertOther            AlertType = "other"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertFraud, AlertUnused, AlertPriceIncrease, AlertRenewal, AlertDuplicate,
		AlertUnusualSpending, AlertPaymentFailed, AlertTrialEnding, AlertCancellationRisk, AlertOther:
		return true
	}
	return false
}

type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type AlertStatus string

const (
	AlertStatusActive        AlertStatus = "active"
	AlertStatusInvestigating AlertStatus = "investigating"
	AlertStatusResolved      AlertStatus = "resolved"
	AlertStatusIgnored       AlertStatus = "ignored"
)

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusInvestigating, AlertStatusResolved, AlertStatusIgnored:
		return true
	}
	return false
}

// Terminal reports whether the workflow has finished for this alert.
func (s AlertStatus) Terminal() bool {
	return s == AlertStatusResolved || s == AlertStatusIgnored
}

type Resolution string

const (
	ResolutionConfirmedFraud       Resolution = "confirmed_fraud"
	ResolutionFalsePositive        Resolution = "false_positive"
	ResolutionUserActionRequired   Resolution = "user_action_required"
	ResolutionResolvedAutomatically Resolution = "resolved_automatically"
	ResolutionIgnored              Resolution = "ignored"
)

// ValidForResolve reports whether a caller may pass this resolution to a
// resolve transition. "ignored" is reserved for the ignore transition.
func (r Resolution) ValidForResolve() bool {
	switch r {
	case ResolutionConfirmedFraud, ResolutionFalsePositive, ResolutionUserActionRequired, ResolutionResolvedAutomatically:
		return true
	}
	return false
}

type RecordSource string

const (
	SourceManual      RecordSource = "manual"
	SourceCSVUpload   RecordSource = "csv_upload"
	SourceGmailImport RecordSource = "gmail_import"
	SourceAIDetection RecordSource = "ai_detection"
	SourceUserReport  RecordSource = "user_report"
)

func (s RecordSource) Valid() bool {
	switch s {
	case SourceManual, SourceCSVUpload, SourceGmailImport, SourceAIDetection, SourceUserReport:
		return true
	}
	return false
}

type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyINR, CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetBanking PaymentMethod = "net_banking"
	PaymentWallet     PaymentMethod = "wallet"
	PaymentOther      PaymentMethod = "other"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCreditCard, PaymentDebitCard, PaymentUPI, PaymentNetBanking, PaymentWallet, PaymentOther:
		return true
	}
	return false
}

// Categories is the closed set of subscription categories.
var Categories = []string{
	"Streaming", "Music", "Software", "Gaming", "News",
	"Productivity", "Cloud Storage", "VPN", "Education",
	"Fitness", "Food", "Transportation", "Other",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
