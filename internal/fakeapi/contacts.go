package fakeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/adamwoolhether/localbitcoins"
)

type contactState int

const (
	stateOpen contactState = iota
	stateReleased
	stateCanceled
	stateClosed
)

func (st contactState) match(c *localbitcoins.Contact) bool {
	switch st {
	case stateReleased:
		return c.ReleasedAt != nil
	case stateCanceled:
		return c.CanceledAt != nil
	case stateClosed:
		return c.ClosedAt != nil
	default:
		return c.ReleasedAt == nil && c.CanceledAt == nil && c.ClosedAt == nil
	}
}

func involves(c *localbitcoins.Contact, username string) bool {
	return c.Buyer.Username == username || c.Seller.Username == username
}

func contactEntry(c *localbitcoins.Contact) localbitcoins.ContactEntry {
	return localbitcoins.ContactEntry{
		Data: *c,
		Actions: map[string]string{
			"messages_url":         fmt.Sprintf("/api/contact_messages/%d/", c.ContactID),
			"message_post_url":     fmt.Sprintf("/api/contact_message_post/%d/", c.ContactID),
			"advertisement_url":    fmt.Sprintf("/api/ad-get/%d/", c.Advertisement.ID),
			"advertisement_public": fmt.Sprintf("/ad/%d", c.Advertisement.ID),
		},
	}
}

func (s *Service) dashboard(st contactState) Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		username := GetValues(ctx).Username

		s.mu.Lock()
		list := localbitcoins.ContactList{ContactList: []localbitcoins.ContactEntry{}}
		for _, id := range s.contactOrder {
			c := s.contacts[id]
			if involves(c, username) && st.match(c) {
				list.ContactList = append(list.ContactList, contactEntry(c))
			}
		}
		list.ContactCount = len(list.ContactList)
		s.mu.Unlock()

		return RespondData(ctx, w, list)
	}
}

// withContact runs fn under the lock on the contact named by the id path
// value, provided the caller is a party to it.
func (s *Service) withContact(ctx context.Context, r *http.Request, fn func(c *localbitcoins.Contact) error) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok || !involves(c, GetValues(ctx).Username) {
		return NewError(http.StatusNotFound, CodeNotFound, "Contact not found")
	}

	return fn(c)
}

func (s *Service) releaseContact(withPin bool) Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if withPin {
			vals, err := form(r, "pincode")
			if err != nil {
				return err
			}
			if vals.Get("pincode") != s.pincode {
				return FieldErrors{"pincode": {"Incorrect PIN code."}}
			}
		}

		err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
			if c.Seller.Username != GetValues(ctx).Username {
				return NewError(http.StatusForbidden, CodeNotAllowed, "Only the seller can release a contact")
			}
			if !stateOpen.match(c) {
				return NewError(http.StatusBadRequest, CodeNotAllowed, "Contact is not open")
			}
			c.ReleasedAt = stamp(ctx)

			return nil
		})
		if err != nil {
			return err
		}

		return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Contact released."})
	}
}

func (s *Service) markPaid(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		if c.Buyer.Username != GetValues(ctx).Username {
			return NewError(http.StatusForbidden, CodeNotAllowed, "Only the buyer can mark a contact as paid")
		}
		c.PaymentCompletedAt = stamp(ctx)

		return nil
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Contact marked as paid."})
}

func (s *Service) dispute(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if _, err := form(r); err != nil {
		return err
	}

	err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		if c.DisputedAt != nil {
			return NewError(http.StatusBadRequest, CodeNotAllowed, "Contact is already disputed")
		}
		c.DisputedAt = stamp(ctx)

		return nil
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Dispute started."})
}

func (s *Service) cancelContact(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		if !stateOpen.match(c) {
			return NewError(http.StatusBadRequest, CodeNotAllowed, "Contact is not open")
		}
		c.CanceledAt = stamp(ctx)

		return nil
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Contact canceled."})
}

func (s *Service) fundContact(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		if c.FundedAt != nil {
			return NewError(http.StatusBadRequest, CodeNotAllowed, "Contact is already funded")
		}
		if c.AmountBTC.GreaterThan(s.balance) {
			return NewError(http.StatusBadRequest, CodeInsufficientFund, "Insufficient balance")
		}
		s.balance = s.balance.Sub(c.AmountBTC)
		c.FundedAt = stamp(ctx)
		c.EscrowedAt = c.FundedAt

		return nil
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Contact funded."})
}

func (s *Service) createContact(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vals, err := form(r, "amount")
	if err != nil {
		return err
	}
	amount, err := positiveAmount(vals, "amount")
	if err != nil {
		return err
	}

	username := GetValues(ctx).Username

	s.mu.Lock()
	defer s.mu.Unlock()

	ad, ok := s.ads[r.PathValue("ad")]
	if !ok || ad["visible"] != true {
		return NewError(http.StatusNotFound, CodeNotFound, "Advertisement not found")
	}

	profile, _ := ad["profile"].(map[string]any)
	advertiser := fmt.Sprint(profile["username"])
	if advertiser == username {
		return NewError(http.StatusBadRequest, CodeNotAllowed, "You cannot trade with yourself")
	}

	if lo, ok := decimalField(ad, "min_amount"); ok && amount.LessThan(lo) {
		return FieldErrors{"amount": {fmt.Sprintf("Ensure this value is greater than or equal to %s.", lo)}}
	}
	if hi, ok := decimalField(ad, "max_amount"); ok && amount.GreaterThan(hi) {
		return FieldErrors{"amount": {fmt.Sprintf("Ensure this value is less than or equal to %s.", hi)}}
	}

	price, ok := decimalField(ad, "temp_price")
	if !ok || !price.IsPositive() {
		return NewInternal(fmt.Errorf("ad %s has no price", r.PathValue("ad")))
	}

	adID, _ := strconv.ParseInt(r.PathValue("ad"), 10, 64)
	tradeType := fmt.Sprint(ad["trade_type"])
	me, them := s.trader(username), s.trader(advertiser)

	s.nextContact++
	c := localbitcoins.Contact{
		ContactID:     s.nextContact,
		CreatedAt:     GetValues(ctx).Now,
		ReferenceCode: fmt.Sprintf("L%dBF", s.nextContact),
		Currency:      fmt.Sprint(ad["currency"]),
		Amount:        amount,
		AmountBTC:     amount.DivRound(price, 8),
		FeeBTC:        decimal.Zero,
		Advertisement: localbitcoins.ContactAd{
			ID:            adID,
			TradeType:     tradeType,
			PaymentMethod: fmt.Sprint(ad["online_provider"]),
			Advertiser:    them,
		},
	}

	// The advertiser of a sell ad is the seller and funds the escrow.
	if tradeType == "ONLINE_SELL" {
		c.IsBuying, c.Buyer, c.Seller = true, me, them
		c.FundedAt = stamp(ctx)
		c.EscrowedAt = c.FundedAt
	} else {
		c.IsSelling, c.Buyer, c.Seller = true, them, me
	}

	s.contacts[c.ContactID] = &c
	s.contactOrder = append(s.contactOrder, c.ContactID)

	if msg := vals.Get("message"); msg != "" {
		s.messages[c.ContactID] = append(s.messages[c.ContactID], s.message(ctx, msg))
	}

	return RespondData(ctx, w, localbitcoins.CreatedContact{
		ContactID: c.ContactID,
		Funded:    c.FundedAt != nil,
		Message:   "OK!",
	})
}

func (s *Service) contactInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var out localbitcoins.Contact
	err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		out = *c
		return nil
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, out)
}

func (s *Service) contactsInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	raw := r.URL.Query().Get("contacts")
	if raw == "" {
		return FieldErrors{"contacts": {fieldRequired}}
	}

	username := GetValues(ctx).Username

	s.mu.Lock()
	list := localbitcoins.ContactList{ContactList: []localbitcoins.ContactEntry{}}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		if c, ok := s.contacts[id]; ok && involves(c, username) {
			list.ContactList = append(list.ContactList, contactEntry(c))
		}
	}
	list.ContactCount = len(list.ContactList)
	s.mu.Unlock()

	return RespondData(ctx, w, list)
}

func (s *Service) contactMessages(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var list localbitcoins.MessageList
	err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		list.MessageList = slices.Clone(s.messages[c.ContactID])
		return nil
	})
	if err != nil {
		return err
	}

	if list.MessageList == nil {
		list.MessageList = []localbitcoins.ContactMessage{}
	}
	list.MessageCount = len(list.MessageList)

	return RespondData(ctx, w, list)
}

func (s *Service) recentMessages(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	username := GetValues(ctx).Username

	s.mu.Lock()
	list := localbitcoins.MessageList{MessageList: []localbitcoins.ContactMessage{}}
	for _, id := range s.contactOrder {
		if !involves(s.contacts[id], username) {
			continue
		}
		for _, m := range s.messages[id] {
			m.ContactID = id
			list.MessageList = append(list.MessageList, m)
		}
	}
	s.mu.Unlock()

	slices.SortStableFunc(list.MessageList, func(a, b localbitcoins.ContactMessage) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	list.MessageCount = len(list.MessageList)

	return RespondData(ctx, w, list)
}

const maxUpload = 10 << 20

func (s *Service) postMessage(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return NewError(http.StatusBadRequest, CodeInvalidArguments, "Malformed multipart body")
	}
	defer r.MultipartForm.RemoveAll()

	msg := r.FormValue("msg")

	var att *attachment
	if file, hdr, err := r.FormFile("document"); err == nil {
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return NewInternal(fmt.Errorf("reading upload: %w", err))
		}

		ct := hdr.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			ct = http.DetectContentType(data)
		}
		att = &attachment{name: hdr.Filename, contentType: ct, data: data}
	}

	if msg == "" && att == nil {
		return FieldErrors{"msg": {fieldRequired}}
	}

	return s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		m := s.message(ctx, msg)

		if att != nil {
			s.nextAttachment++
			key := fmt.Sprintf("%d/%d", c.ContactID, s.nextAttachment)
			s.attachments[key] = *att

			m.AttachmentName = att.name
			m.AttachmentType = att.contentType
			m.AttachmentURL = fmt.Sprintf("%s/api/contact_message_attachment/%s/", origin(r), key)
		}

		s.messages[c.ContactID] = append(s.messages[c.ContactID], m)

		return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Message sent successfully."})
	})
}

func (s *Service) getAttachment(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var att attachment
	err := s.withContact(ctx, r, func(c *localbitcoins.Contact) error {
		var ok bool
		att, ok = s.attachments[fmt.Sprintf("%d/%s", c.ContactID, r.PathValue("attachment"))]
		if !ok {
			return NewError(http.StatusNotFound, CodeNotFound, "Attachment not found")
		}

		return nil
	})
	if err != nil {
		return err
	}

	return RespondBinary(ctx, w, att.contentType, att.data)
}

// message builds a message authored by the caller. s.mu must be held.
func (s *Service) message(ctx context.Context, msg string) localbitcoins.ContactMessage {
	username := GetValues(ctx).Username

	return localbitcoins.ContactMessage{
		Msg: msg,
		Sender: localbitcoins.MessageSender{
			Name:     username,
			Username: username,
		},
		CreatedAt: GetValues(ctx).Now,
	}
}

// trader returns the public summary of username. s.mu must be held.
func (s *Service) trader(username string) localbitcoins.Trader {
	acct := s.users[username]

	return localbitcoins.Trader{
		Username:      username,
		Name:          username,
		FeedbackScore: acct.FeedbackScore,
		LastOnline:    time.Now().UTC().Format(time.RFC3339),
	}
}

func stamp(ctx context.Context) *time.Time {
	now := GetValues(ctx).Now
	return &now
}

func decimalField(ad map[string]any, field string) (decimal.Decimal, bool) {
	v, ok := ad[field].(string)
	if !ok || v == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(v)

	return d, err == nil
}
