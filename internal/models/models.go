package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus enum values
const (
	CardStatusActive  = "ACTIVE"
	CardStatusBlocked = "BLOCKED"
	CardStatusLost    = "LOST"
)

// Card represents a payment card and its credit state
type Card struct {
	ID                uuid.UUID       `json:"id"`
	Brand             string          `json:"brand"`
	Number            string          `json:"-"` // raw PAN, never serialized
	MaskedNumber      string          `json:"masked_number"`
	HolderName        string          `json:"holder_name"`
	ExpirationDate    time.Time       `json:"expiration_date"`
	CreditLimit       decimal.Decimal `json:"credit_limit"`
	RemainingLimit    decimal.Decimal `json:"remaining_limit"`
	Status            string          `json:"status"`
	RiskScore         float64         `json:"risk_score"`
	CreatedAt         time.Time       `json:"created_at"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty"`
}

// DeviceType enum values
const (
	DeviceTypeMobile      = "MOBILE"
	DeviceTypeDesktop     = "DESKTOP"
	DeviceTypePOSTerminal = "POS_TERMINAL"
)

// Device represents a payment device; cards and devices are many-to-many
type Device struct {
	ID          uuid.UUID `json:"id"`
	Fingerprint string    `json:"fingerprint"`
	DeviceType  string    `json:"device_type"`
	OS          string    `json:"os"`
	Browser     string    `json:"browser"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// Decision enum values
const (
	DecisionApproved = "APPROVED"
	DecisionReview   = "REVIEW"
	DecisionBlocked  = "BLOCKED"
)

// MerchantCategory enum values
const (
	CategoryGrocery        = "GROCERY"
	CategoryRestaurant     = "RESTAURANT"
	CategoryGasStation     = "GAS_STATION"
	CategoryPharmacy       = "PHARMACY"
	CategoryEntertainment  = "ENTERTAINMENT"
	CategoryRetail         = "RETAIL"
	CategoryTravel         = "TRAVEL"
	CategoryElectronics    = "ELECTRONICS"
	CategorySubscription   = "SUBSCRIPTION"
	CategoryGambling       = "GAMBLING"
	CategoryCryptoExchange = "CRYPTO_EXCHANGE"
	CategoryMoneyTransfer  = "MONEY_TRANSFER"
	CategoryAdultContent   = "ADULT_CONTENT"
	CategoryUnknown        = "UNKNOWN"
)

// MerchantCategories lists every selectable category
var MerchantCategories = []string{
	CategoryGrocery, CategoryRestaurant, CategoryGasStation, CategoryPharmacy,
	CategoryEntertainment, CategoryRetail, CategoryTravel, CategoryElectronics,
	CategorySubscription, CategoryGambling, CategoryCryptoExchange,
	CategoryMoneyTransfer, CategoryAdultContent,
}

// HighRiskCategories is the subset sampled by the risky branch of the generator
var HighRiskCategories = []string{
	CategoryGambling, CategoryCryptoExchange, CategoryMoneyTransfer, CategoryAdultContent,
}

// Transaction represents one candidate payment evaluated by the engine
type Transaction struct {
	ID                uuid.UUID       `json:"id"`
	CardID            uuid.UUID       `json:"card_id"`
	DeviceID          uuid.UUID       `json:"device_id"`
	DeviceFingerprint string          `json:"device_fingerprint"`
	Amount            decimal.Decimal `json:"amount"`
	MerchantCategory  string          `json:"merchant_category"`
	IPAddress         string          `json:"ip_address"`
	Latitude          string          `json:"latitude"`
	Longitude         string          `json:"longitude"`
	Country           *string         `json:"country,omitempty"`
	State             *string         `json:"state,omitempty"`
	City              *string         `json:"city,omitempty"`
	TransactionAt     time.Time       `json:"transaction_at"`
	CreatedAt         time.Time       `json:"created_at"`
	Reimbursed        bool            `json:"reimbursed"`
	Fraud             bool            `json:"fraud"`
	Decision          string          `json:"decision"`
}

// AlertSeverity enum values
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// AlertStatus enum values
const (
	AlertStatusPending   = "PENDING"
	AlertStatusReviewed  = "REVIEWED"
	AlertStatusConfirmed = "CONFIRMED"
	AlertStatusDismissed = "DISMISSED"
)

// FraudAlert is the persisted record for a suspicious evaluation
type FraudAlert struct {
	ID            uuid.UUID   `json:"id"`
	TransactionID uuid.UUID   `json:"transaction_id"`
	CardID        uuid.UUID   `json:"card_id"`
	AlertTypes    []AlertType `json:"alert_types"`
	FraudScore    int         `json:"fraud_score"`
	Severity      string      `json:"severity"`
	Probability   int         `json:"probability"`
	Description   string      `json:"description"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
}

// CardPattern holds the behavioral profile of one card (1:1 with Card)
type CardPattern struct {
	ID                  uuid.UUID      `json:"id"`
	CardID              uuid.UUID      `json:"card_id"`
	AvgAmount           float64        `json:"avg_amount"`
	MedianAmount        float64        `json:"median_amount"`
	MaxAmount           float64        `json:"max_amount"`
	Q1Amount            float64        `json:"q1_amount"`
	Q3Amount            float64        `json:"q3_amount"`
	IQRAmount           float64        `json:"iqr_amount"`
	StdDevAmount        float64        `json:"std_dev_amount"`
	P95Amount           float64        `json:"p95_amount"`
	TicketBuckets       map[string]int `json:"ticket_buckets,omitempty"`
	CommonCategories    []string       `json:"common_categories"`
	CategoryEntropy     float64        `json:"category_entropy"`
	PreferredHours      []int          `json:"preferred_hours"`
	PreferredWeekdays   []string       `json:"preferred_weekdays"`
	WeekendRatio        float64        `json:"weekend_ratio"`
	DailyFrequency      float64        `json:"daily_frequency"`
	MaxTxPerHour        int            `json:"max_tx_per_hour"`
	TemporalConsistency float64        `json:"temporal_consistency"`
	TransactionCount    int            `json:"transaction_count"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Ticket bucket names used by the pattern builder
const (
	TicketMicro  = "micro"
	TicketSmall  = "small"
	TicketMedium = "medium"
	TicketLarge  = "large"
)

// User represents an operator of the admin surface
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// AlertEvent is published to Kafka when a fraud alert is persisted
type AlertEvent struct {
	AlertID       string    `json:"alert_id"`
	TransactionID string    `json:"transaction_id"`
	CardID        string    `json:"card_id"`
	AlertTypes    []string  `json:"alert_types"`
	FraudScore    int       `json:"fraud_score"`
	Severity      string    `json:"severity"`
	Decision      string    `json:"decision"`
	Timestamp     time.Time `json:"timestamp"`
}

// EvaluationEvent is published to the Redis stream after each evaluation
type EvaluationEvent struct {
	TransactionID string    `json:"transaction_id"`
	CardID        string    `json:"card_id"`
	Score         int       `json:"score"`
	Decision      string    `json:"decision"`
	AlertCount    int       `json:"alert_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// Pagination represents pagination parameters
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
