package localbitcoins

import (
	"time"

	"github.com/shopspring/decimal"
)

// Envelope is the success shape shared by every private endpoint.
type Envelope[T any] struct {
	Data    T              `json:"data"`
	Actions map[string]any `json:"actions,omitempty"`
}

// StatusMessage is the data of endpoints that only confirm an action.
type StatusMessage struct {
	Message string `json:"message"`
}

// Account is a public user profile.
type Account struct {
	Username                  string     `json:"username"`
	CreatedAt                 time.Time  `json:"created_at"`
	TradingPartnersCount      int        `json:"trading_partners_count"`
	FeedbacksUnconfirmedCount int        `json:"feedbacks_unconfirmed_count"`
	TradeVolumeText           string     `json:"trade_volume_text"`
	HasCommonTrades           bool       `json:"has_common_trades"`
	ConfirmedTradeCountText   string     `json:"confirmed_trade_count_text"`
	BlockedCount              int        `json:"blocked_count"`
	FeedbackScore             int        `json:"feedback_score"`
	FeedbackCount             int        `json:"feedback_count"`
	URL                       string     `json:"url"`
	TrustedCount              int        `json:"trusted_count"`
	IdentityVerifiedAt        *time.Time `json:"identity_verified_at"`
}

// PinCheck reports whether a PIN code matched.
type PinCheck struct {
	PinOK bool `json:"pincode_ok"`
}

// Notification is an entry of the notification feed.
type Notification struct {
	ID              string    `json:"id"`
	URL             string    `json:"url"`
	CreatedAt       time.Time `json:"created_at"`
	ContactID       *int64    `json:"contact_id"`
	AdvertisementID *int64    `json:"advertisement_id"`
	Read            bool      `json:"read"`
	Msg             string    `json:"msg"`
}

// Trader identifies one side of a contact.
type Trader struct {
	Username      string `json:"username"`
	Name          string `json:"name"`
	TradeCount    string `json:"trade_count"`
	FeedbackScore int    `json:"feedback_score"`
	LastOnline    string `json:"last_online"`
}

// ContactAd is the advertisement summary embedded in a contact.
type ContactAd struct {
	ID            int64  `json:"id"`
	TradeType     string `json:"trade_type"`
	PaymentMethod string `json:"payment_method"`
	Advertiser    Trader `json:"advertiser"`
}

// Contact is a trade between the token owner and another user.
type Contact struct {
	ContactID          int64           `json:"contact_id"`
	CreatedAt          time.Time       `json:"created_at"`
	ReferenceCode      string          `json:"reference_code"`
	Currency           string          `json:"currency"`
	Amount             decimal.Decimal `json:"amount"`
	AmountBTC          decimal.Decimal `json:"amount_btc"`
	FeeBTC             decimal.Decimal `json:"fee_btc"`
	IsBuying           bool            `json:"is_buying"`
	IsSelling          bool            `json:"is_selling"`
	Buyer              Trader          `json:"buyer"`
	Seller             Trader          `json:"seller"`
	Advertisement      ContactAd       `json:"advertisement"`
	PaymentCompletedAt *time.Time      `json:"payment_completed_at"`
	FundedAt           *time.Time      `json:"funded_at"`
	EscrowedAt         *time.Time      `json:"escrowed_at"`
	ReleasedAt         *time.Time      `json:"released_at"`
	CanceledAt         *time.Time      `json:"canceled_at"`
	ClosedAt           *time.Time      `json:"closed_at"`
	DisputedAt         *time.Time      `json:"disputed_at"`
}

// ContactEntry pairs a contact with its action URLs.
type ContactEntry struct {
	Data    Contact           `json:"data"`
	Actions map[string]string `json:"actions"`
}

// ContactList is the data of the dashboard endpoints.
type ContactList struct {
	ContactList  []ContactEntry `json:"contact_list"`
	ContactCount int            `json:"contact_count"`
}

// CreatedContact is the data returned when a contact is opened.
type CreatedContact struct {
	ContactID int64  `json:"contact_id"`
	Funded    bool   `json:"funded"`
	Message   string `json:"message"`
}

// MessageSender identifies the author of a contact message.
type MessageSender struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Username   string `json:"username"`
	TradeCount int64  `json:"trade_count"`
	LastOnline string `json:"last_seen_on"`
}

// ContactMessage is a single chat message. Attachment fields are only
// set when a file was posted with the message.
type ContactMessage struct {
	Msg            string        `json:"msg"`
	Sender         MessageSender `json:"sender"`
	CreatedAt      time.Time     `json:"created_at"`
	IsAdmin        bool          `json:"is_admin"`
	ContactID      int64         `json:"contact_id,omitempty"`
	AttachmentName string        `json:"attachment_name,omitempty"`
	AttachmentType string        `json:"attachment_type,omitempty"`
	AttachmentURL  string        `json:"attachment_url,omitempty"`
}

// MessageList is the data of the message endpoints.
type MessageList struct {
	MessageList  []ContactMessage `json:"message_list"`
	MessageCount int              `json:"message_count"`
}

// Balance is a wallet total.
type Balance struct {
	Balance  decimal.Decimal `json:"balance"`
	Sendable decimal.Decimal `json:"sendable"`
}

// Transaction is a wallet movement.
type Transaction struct {
	TxID        string          `json:"txid"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	TxType      int             `json:"tx_type"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ReceivingAddress is a wallet deposit address.
type ReceivingAddress struct {
	Address  string          `json:"address"`
	Received decimal.Decimal `json:"received"`
}

// Wallet is the full wallet view.
type Wallet struct {
	Message                 string             `json:"message"`
	Total                   Balance            `json:"total"`
	SentTransactions30d     []Transaction      `json:"sent_transactions_30d"`
	ReceivedTransactions30d []Transaction      `json:"received_transactions_30d"`
	ReceivingAddressCount   int                `json:"receiving_address_count"`
	ReceivingAddressList    []ReceivingAddress `json:"receiving_address_list"`
}

// WalletBalance is the lighter wallet view without transactions.
type WalletBalance struct {
	Message               string             `json:"message"`
	Total                 Balance            `json:"total"`
	ReceivingAddressCount int                `json:"receiving_address_count"`
	ReceivingAddressList  []ReceivingAddress `json:"receiving_address_list"`
}

// WalletAddress is an unused receiving address.
type WalletAddress struct {
	Message string `json:"message"`
	Address string `json:"address"`
}

// Fees are the current deposit and outgoing fees in BTC.
type Fees struct {
	DepositFee  decimal.Decimal `json:"deposit_fee"`
	OutgoingFee decimal.Decimal `json:"outgoing_fee"`
}

// AdProfile is the advertiser summary embedded in an ad.
type AdProfile struct {
	Username      string `json:"username"`
	Name          string `json:"name"`
	TradeCount    string `json:"trade_count"`
	FeedbackScore int    `json:"feedback_score"`
	LastOnline    string `json:"last_online"`
}

// Ad is an advertisement.
type Ad struct {
	AdID                   int64               `json:"ad_id"`
	TradeType              string              `json:"trade_type"`
	Visible                bool                `json:"visible"`
	LocationString         string              `json:"location_string"`
	CountryCode            string              `json:"countrycode"`
	City                   string              `json:"city"`
	Currency               string              `json:"currency"`
	OnlineProvider         string              `json:"online_provider"`
	BankName               string              `json:"bank_name"`
	PriceEquation          string              `json:"price_equation"`
	TempPrice              decimal.NullDecimal `json:"temp_price"`
	TempPriceUSD           decimal.NullDecimal `json:"temp_price_usd"`
	MinAmount              decimal.NullDecimal `json:"min_amount"`
	MaxAmount              decimal.NullDecimal `json:"max_amount"`
	MaxAmountAvailable     decimal.NullDecimal `json:"max_amount_available"`
	Msg                    string              `json:"msg"`
	RequireIdentification  bool                `json:"require_identification"`
	SMSVerificationRequire bool                `json:"sms_verification_required"`
	TrustedRequired        bool                `json:"trusted_required"`
	TrackMaxAmount         bool                `json:"track_max_amount"`
	CreatedAt              time.Time           `json:"created_at"`
	Profile                AdProfile           `json:"profile"`
}

// AdEntry pairs an ad with its action URLs.
type AdEntry struct {
	Data    Ad                `json:"data"`
	Actions map[string]string `json:"actions"`
}

// AdList is the data of the ad listing endpoints.
type AdList struct {
	AdList  []AdEntry `json:"ad_list"`
	AdCount int       `json:"ad_count"`
}

// Pagination links of a public listing.
type Pagination struct {
	Next string `json:"next"`
	Prev string `json:"prev"`
}

// MarketPage is one page of a public market listing.
type MarketPage struct {
	Data       AdList     `json:"data"`
	Pagination Pagination `json:"pagination"`
}
