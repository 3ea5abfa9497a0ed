package fakeapi

import (
	"context"
	"net/http"
	"slices"

	"github.com/adamwoolhether/localbitcoins"
)

func (s *Service) myself(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	acct := s.users[GetValues(ctx).Username]
	s.mu.Unlock()

	return RespondData(ctx, w, acct)
}

func (s *Service) accountInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	acct, ok := s.users[r.PathValue("username")]
	s.mu.Unlock()

	if !ok {
		return NewError(http.StatusNotFound, CodeNotFound, "User not found")
	}

	return RespondData(ctx, w, acct)
}

func (s *Service) checkPincode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vals, err := form(r, "code")
	if err != nil {
		return err
	}

	return RespondData(ctx, w, localbitcoins.PinCheck{PinOK: vals.Get("code") == s.pincode})
}

func (s *Service) logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Logged out"})
}

func (s *Service) listNotifications(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	list := slices.Clone(s.notifications)
	s.mu.Unlock()

	if list == nil {
		list = []localbitcoins.Notification{}
	}

	return RespondData(ctx, w, list)
}

func (s *Service) markNotificationRead(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.notifications, func(n localbitcoins.Notification) bool {
		return n.ID == r.PathValue("id")
	})
	if i < 0 {
		return NewError(http.StatusNotFound, CodeNotFound, "Notification not found")
	}
	s.notifications[i].Read = true

	return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Notification marked as read."})
}

var feedbackTypes = []string{"trust", "positive", "neutral", "block", "block_without_feedback"}

func (s *Service) feedback(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vals, err := form(r, "feedback")
	if err != nil {
		return err
	}
	if !slices.Contains(feedbackTypes, vals.Get("feedback")) {
		return FieldErrors{"feedback": {"Select a valid choice."}}
	}

	s.mu.Lock()
	_, ok := s.users[r.PathValue("username")]
	s.mu.Unlock()

	if !ok {
		return NewError(http.StatusNotFound, CodeNotFound, "User not found")
	}

	return RespondData(ctx, w, localbitcoins.StatusMessage{Message: "Feedback changed."})
}
