package localbitcoins

import (
	"context"
	"fmt"

	"github.com/adamwoolhether/localbitcoins/client"
)

// FeedbackType is the rating left on a trading partner.
type FeedbackType string

// Feedback values accepted by [Client.PostFeedback].
const (
	FeedbackTrust               FeedbackType = "trust"
	FeedbackPositive            FeedbackType = "positive"
	FeedbackNeutral             FeedbackType = "neutral"
	FeedbackBlock               FeedbackType = "block"
	FeedbackBlockWithoutComment FeedbackType = "block_without_feedback"
)

// AccountInfo returns the public profile of username.
func (c *Client) AccountInfo(ctx context.Context, username string) (*Envelope[Account], error) {
	in := struct {
		Username string `json:"username" validate:"required,printascii,excludesall=/?#%"`
	}{username}
	if err := check("AccountInfo", in); err != nil {
		return nil, err
	}

	return get[Account](ctx, c, fmt.Sprintf("/api/account_info/%s/", username), nil)
}

// Myself returns the profile of the token owner.
func (c *Client) Myself(ctx context.Context) (*Envelope[Account], error) {
	return get[Account](ctx, c, "/api/myself/", nil)
}

// CheckPinCode reports whether code is the owner's PIN.
func (c *Client) CheckPinCode(ctx context.Context, code string) (*Envelope[PinCheck], error) {
	in := struct {
		Code string `json:"code" validate:"required,number"`
	}{code}
	if err := check("CheckPinCode", in); err != nil {
		return nil, err
	}

	return post[PinCheck](ctx, c, "/api/pincode/", client.NewArgs("code", code))
}

// Logout expires the current access token.
func (c *Client) Logout(ctx context.Context) (*Envelope[StatusMessage], error) {
	return post[StatusMessage](ctx, c, "/api/logout/", nil)
}

// Notifications returns recent notifications.
func (c *Client) Notifications(ctx context.Context) (*Envelope[[]Notification], error) {
	return get[[]Notification](ctx, c, "/api/notifications/", nil)
}

// MarkNotificationRead marks the notification with id as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) (*Envelope[StatusMessage], error) {
	in := struct {
		ID string `json:"id" validate:"required,alphanum"`
	}{id}
	if err := check("MarkNotificationRead", in); err != nil {
		return nil, err
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/notifications/mark_as_read/%s/", id), nil)
}

// PostFeedback rates username. msg is optional except when blocking.
func (c *Client) PostFeedback(ctx context.Context, username string, feedback FeedbackType, msg string) (*Envelope[StatusMessage], error) {
	in := struct {
		Username string       `json:"username" validate:"required,printascii,excludesall=/?#%"`
		Feedback FeedbackType `json:"feedback" validate:"required,oneof=trust positive neutral block block_without_feedback"`
		Msg      string       `json:"msg" validate:"required_if=Feedback block"`
	}{username, feedback, msg}
	if err := check("PostFeedback", in); err != nil {
		return nil, err
	}

	args := client.NewArgs("feedback", string(feedback))
	if msg != "" {
		args = args.Add("msg", msg)
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/feedback/%s/", username), args)
}
