// Package fakeapi is an in-memory stand-in for the LocalBitcoins HTTP API.
// It verifies request signatures and nonces the way the live service does
// and keeps enough state for the client to be exercised end to end.
package fakeapi

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/adamwoolhether/localbitcoins"
)

//go:embed seed.json
var seedJSON []byte

type seed struct {
	Ads           []map[string]any                         `json:"ads"`
	Contacts      []localbitcoins.Contact                  `json:"contacts"`
	Messages      map[int64][]localbitcoins.ContactMessage `json:"messages"`
	Notifications []localbitcoins.Notification             `json:"notifications"`
}

type attachment struct {
	name        string
	contentType string
	data        []byte
}

// Service serves the fake API. It is safe for concurrent use.
type Service struct {
	app     *App
	keys    *keyring
	pincode string

	mu             sync.Mutex
	balance        decimal.Decimal
	users          map[string]localbitcoins.Account
	ads            map[string]map[string]any
	adOrder        []string
	contacts       map[int64]*localbitcoins.Contact
	contactOrder   []int64
	messages       map[int64][]localbitcoins.ContactMessage
	attachments    map[string]attachment
	notifications  []localbitcoins.Notification
	sent           []localbitcoins.Transaction
	addresses      []localbitcoins.ReceivingAddress
	nextContact    int64
	nextAttachment int64
}

// New constructs a Service loaded with the built-in seed data.
func New(opts ...Option) (*Service, error) {
	o := options{
		balance: decimal.RequireFromString("1.5"),
		pincode: "1234",
	}
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.accounts) == 0 {
		return nil, errors.New("fakeapi: at least one account is required")
	}

	var sd seed
	dec := json.NewDecoder(bytes.NewReader(seedJSON))
	dec.UseNumber()
	if err := dec.Decode(&sd); err != nil {
		return nil, fmt.Errorf("fakeapi: decoding seed: %w", err)
	}

	s := Service{
		keys:          newKeyring(o.accounts),
		pincode:       o.pincode,
		balance:       o.balance,
		users:         make(map[string]localbitcoins.Account),
		ads:           make(map[string]map[string]any, len(sd.Ads)),
		contacts:      make(map[int64]*localbitcoins.Contact, len(sd.Contacts)),
		messages:      sd.Messages,
		attachments:   make(map[string]attachment),
		notifications: sd.Notifications,
	}
	if s.messages == nil {
		s.messages = make(map[int64][]localbitcoins.ContactMessage)
	}

	for _, ad := range sd.Ads {
		id := fmt.Sprint(ad["ad_id"])
		if err := reprice(ad); err != nil {
			return nil, fmt.Errorf("fakeapi: pricing ad %s: %w", id, err)
		}
		s.ads[id] = ad
		s.adOrder = append(s.adOrder, id)

		if p, ok := ad["profile"].(map[string]any); ok {
			s.addUser(fmt.Sprint(p["username"]), p["feedback_score"])
		}
	}

	for i := range sd.Contacts {
		c := sd.Contacts[i]
		s.contacts[c.ContactID] = &c
		s.contactOrder = append(s.contactOrder, c.ContactID)
		s.nextContact = max(s.nextContact, c.ContactID)
		s.addUser(c.Buyer.Username, c.Buyer.FeedbackScore)
		s.addUser(c.Seller.Username, c.Seller.FeedbackScore)
	}

	for _, a := range o.accounts {
		s.addUser(a.Username, nil)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s.app = newApp(logger, o.tracer, Logger(logger), Errors(logger), Panics())
	s.routes()

	return &s, nil
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// Balance returns the current wallet balance.
func (s *Service) Balance() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.balance
}

// AdField returns a single field of the stored ad id.
func (s *Service) AdField(id, field string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ad, ok := s.ads[id]
	if !ok {
		return nil, false
	}
	v, ok := ad[field]

	return v, ok
}

func (s *Service) addUser(username string, score any) {
	if username == "" {
		return
	}
	if _, ok := s.users[username]; ok {
		return
	}

	acct := localbitcoins.Account{
		Username:        username,
		URL:             "https://localbitcoins.net/accounts/profile/" + username + "/",
		TradeVolumeText: "Less than 25 BTC",
	}
	switch v := score.(type) {
	case int:
		acct.FeedbackScore = v
	case json.Number:
		n, _ := strconv.Atoi(v.String())
		acct.FeedbackScore = n
	}

	s.users[username] = acct
}

func (s *Service) routes() {
	auth := Authenticate(s.keys)

	s.app.Get("/api/myself/", s.myself, auth)
	s.app.Get("/api/account_info/{username}/", s.accountInfo, auth)
	s.app.Post("/api/pincode/", s.checkPincode, auth)
	s.app.Post("/api/logout/", s.logout, auth)
	s.app.Get("/api/notifications/", s.listNotifications, auth)
	s.app.Post("/api/notifications/mark_as_read/{id}/", s.markNotificationRead, auth)
	s.app.Post("/api/feedback/{username}/", s.feedback, auth)

	s.app.Get("/api/dashboard/{$}", s.dashboard(stateOpen), auth)
	s.app.Get("/api/dashboard/released/", s.dashboard(stateReleased), auth)
	s.app.Get("/api/dashboard/canceled/", s.dashboard(stateCanceled), auth)
	s.app.Get("/api/dashboard/closed/", s.dashboard(stateClosed), auth)
	s.app.Post("/api/contact_release/{id}/", s.releaseContact(false), auth)
	s.app.Post("/api/contact_release_pin/{id}/", s.releaseContact(true), auth)
	s.app.Get("/api/contact_mark_as_paid/{id}/", s.markPaid, auth)
	s.app.Post("/api/contact_dispute/{id}/", s.dispute, auth)
	s.app.Post("/api/contact_cancel/{id}/", s.cancelContact, auth)
	s.app.Post("/api/contact_fund/{id}/", s.fundContact, auth)
	s.app.Post("/api/contact_create/{ad}/", s.createContact, auth)
	s.app.Get("/api/contact_info/{$}", s.contactsInfo, auth)
	s.app.Get("/api/contact_info/{id}/", s.contactInfo, auth)
	s.app.Get("/api/contact_messages/{id}/", s.contactMessages, auth)
	s.app.Get("/api/recent_messages/", s.recentMessages, auth)
	s.app.Post("/api/contact_message_post/{id}/", s.postMessage, auth)
	s.app.Get("/api/contact_message_attachment/{id}/{attachment}/", s.getAttachment, auth)

	s.app.Get("/api/wallet/", s.wallet, auth)
	s.app.Get("/api/wallet-balance/", s.walletBalance, auth)
	s.app.Post("/api/wallet-send/", s.walletSend(false), auth)
	s.app.Post("/api/wallet-send-pin/", s.walletSend(true), auth)
	s.app.Post("/api/wallet-addr/", s.walletAddress, auth)
	s.app.Get("/api/fees/", s.fees, auth)

	s.app.Get("/api/ads/", s.ownAds, auth)
	s.app.Get("/api/ad-get/{$}", s.adList, auth)
	s.app.Get("/api/ad-get/{id}/", s.getAd, auth)
	s.app.Post("/api/ad-delete/{id}/", s.deleteAd, auth)
	s.app.Post("/api/ad/{id}/", s.editAd, auth)
	s.app.Post("/api/ad-equation/{id}/", s.editAdEquation, auth)

	s.app.Get("/buy-bitcoins-online/{rest...}", s.market("ONLINE_SELL"))
	s.app.Get("/sell-bitcoins-online/{rest...}", s.market("ONLINE_BUY"))
}
