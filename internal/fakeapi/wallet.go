package fakeapi

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/adamwoolhether/localbitcoins"
)

func (s *Service) wallet(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	wallet := localbitcoins.Wallet{
		Message:                 "OK",
		Total:                   localbitcoins.Balance{Balance: s.balance, Sendable: s.balance},
		SentTransactions30d:     slices.Clone(s.sent),
		ReceivedTransactions30d: []localbitcoins.Transaction{},
		ReceivingAddressCount:   len(s.addresses),
		ReceivingAddressList:    slices.Clone(s.addresses),
	}
	s.mu.Unlock()

	return RespondData(ctx, w, wallet)
}

func (s *Service) walletBalance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	wb := localbitcoins.WalletBalance{
		Message:               "OK",
		Total:                 localbitcoins.Balance{Balance: s.balance, Sendable: s.balance},
		ReceivingAddressCount: len(s.addresses),
		ReceivingAddressList:  slices.Clone(s.addresses),
	}
	s.mu.Unlock()

	return RespondData(ctx, w, wb)
}

func (s *Service) walletSend(withPin bool) Handler {
	required := []string{"address", "amount"}
	if withPin {
		required = append(required, "pincode")
	}

	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		vals, err := form(r, required...)
		if err != nil {
			return err
		}
		if withPin && vals.Get("pincode") != s.pincode {
			return FieldErrors{"pincode": {"Incorrect PIN code."}}
		}

		amount, err := positiveAmount(vals, "amount")
		if err != nil {
			return err
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if amount.GreaterThan(s.balance) {
			return NewError(http.StatusBadRequest, CodeInsufficientFund, "Insufficient balance")
		}

		s.balance = s.balance.Sub(amount)
		s.sent = append(s.sent, localbitcoins.Transaction{
			TxID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
			Amount:      amount.Neg(),
			Description: "Send to " + vals.Get("address"),
			TxType:      1,
			CreatedAt:   GetValues(ctx).Now,
		})

		return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Money is being sent"})
	}
}

func (s *Service) walletAddress(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := "bc1q" + strings.ReplaceAll(uuid.NewString(), "-", "")[:30]

	s.mu.Lock()
	s.addresses = append(s.addresses, localbitcoins.ReceivingAddress{Address: addr, Received: decimal.Zero})
	s.mu.Unlock()

	return RespondData(ctx, w, localbitcoins.WalletAddress{Message: "OK!", Address: addr})
}

func (s *Service) fees(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return RespondData(ctx, w, localbitcoins.Fees{
		DepositFee:  decimal.RequireFromString("0.0005"),
		OutgoingFee: decimal.RequireFromString("0.00005"),
	})
}
