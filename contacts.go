package localbitcoins

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/adamwoolhether/localbitcoins/client"
)

const attachmentPrefix = "/api/contact_message_attachment/"

type contactID struct {
	ContactID string `json:"contact_id" validate:"required,number"`
}

// Dashboard returns the open and active contacts.
func (c *Client) Dashboard(ctx context.Context) (*Envelope[ContactList], error) {
	return get[ContactList](ctx, c, "/api/dashboard/", nil)
}

// DashboardReleased returns released trades.
func (c *Client) DashboardReleased(ctx context.Context) (*Envelope[ContactList], error) {
	return get[ContactList](ctx, c, "/api/dashboard/released/", nil)
}

// DashboardCanceled returns canceled trades.
func (c *Client) DashboardCanceled(ctx context.Context) (*Envelope[ContactList], error) {
	return get[ContactList](ctx, c, "/api/dashboard/canceled/", nil)
}

// DashboardClosed returns closed trades.
func (c *Client) DashboardClosed(ctx context.Context) (*Envelope[ContactList], error) {
	return get[ContactList](ctx, c, "/api/dashboard/closed/", nil)
}

// ContactRelease releases the escrow of a contact.
func (c *Client) ContactRelease(ctx context.Context, id string) (*Envelope[StatusMessage], error) {
	if err := check("ContactRelease", contactID{id}); err != nil {
		return nil, err
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/contact_release/%s/", id), nil)
}

// ContactReleasePin releases the escrow of a contact, authorized by pin.
func (c *Client) ContactReleasePin(ctx context.Context, id, pin string) (*Envelope[StatusMessage], error) {
	in := struct {
		ContactID string `json:"contact_id" validate:"required,number"`
		Pincode   string `json:"pincode" validate:"required,number"`
	}{id, pin}
	if err := check("ContactReleasePin", in); err != nil {
		return nil, err
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/contact_release_pin/%s/", id), client.NewArgs("pincode", pin))
}

// ContactMessages returns the chat of a contact.
func (c *Client) ContactMessages(ctx context.Context, id string) (*Envelope[MessageList], error) {
	if err := check("ContactMessages", contactID{id}); err != nil {
		return nil, err
	}

	return get[MessageList](ctx, c, fmt.Sprintf("/api/contact_messages/%s/", id), nil)
}

// RecentMessages returns the latest messages across all contacts.
func (c *Client) RecentMessages(ctx context.Context) (*Envelope[MessageList], error) {
	return get[MessageList](ctx, c, "/api/recent_messages/", nil)
}

type attachmentRef struct {
	ContactID    string `json:"contact_id" validate:"required,number"`
	AttachmentID string `json:"attachment_id" validate:"required,number"`
}

func attachmentCommand(contactID, attachmentID string) string {
	return fmt.Sprintf("%s%s/%s/", attachmentPrefix, contactID, attachmentID)
}

// ContactMessageAttachment returns the raw bytes of a message attachment.
func (c *Client) ContactMessageAttachment(ctx context.Context, contactID, attachmentID string) ([]byte, error) {
	if err := check("ContactMessageAttachment", attachmentRef{contactID, attachmentID}); err != nil {
		return nil, err
	}

	var b []byte
	if err := c.api.Execute(ctx, attachmentCommand(contactID, attachmentID), http.MethodGet, nil, client.WithBinary(&b)); err != nil {
		return nil, err
	}

	return b, nil
}

// SaveContactMessageAttachment streams a message attachment to destPath.
func (c *Client) SaveContactMessageAttachment(ctx context.Context, contactID, attachmentID, destPath string, opts ...client.DownloadOption) error {
	if err := check("SaveContactMessageAttachment", attachmentRef{contactID, attachmentID}); err != nil {
		return err
	}

	return c.api.Download(ctx, attachmentCommand(contactID, attachmentID), nil, destPath, opts...)
}

// SaveMessageAttachments downloads the attachments of msgs into dir,
// at most maxConcurrent at a time, and waits for all of them.
// Messages without an attachment are skipped. The returned error joins
// every failed download.
func (c *Client) SaveMessageAttachments(ctx context.Context, msgs []ContactMessage, dir string, maxConcurrent int, opts ...client.DownloadOption) error {
	in := struct {
		Dir           string `json:"dir" validate:"required,dir"`
		MaxConcurrent int    `json:"max_concurrent" validate:"gte=0"`
	}{dir, maxConcurrent}
	if err := check("SaveMessageAttachments", in); err != nil {
		return err
	}

	var (
		queue *client.DownloadQueue
		errs  []error
	)
	for _, m := range msgs {
		if m.AttachmentURL == "" {
			continue
		}

		command, err := attachmentPath(m.AttachmentURL)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		dlOpts := append([]client.DownloadOption{}, opts...)
		if queue == nil {
			dlOpts = append(dlOpts, client.WithBatch(maxConcurrent))
		} else {
			dlOpts = append(dlOpts, client.WithQueue(queue))
		}

		res, err := c.api.DownloadAsync(ctx, command, nil, filepath.Join(dir, attachmentFileName(m, command)), dlOpts...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		queue = res.Queue()
	}

	if queue != nil {
		if err := queue.Wait(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// attachmentPath extracts the signed command from an attachment URL.
func attachmentPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing attachment url: %w", err)
	}
	if !strings.HasPrefix(u.Path, attachmentPrefix) {
		return "", fmt.Errorf("unexpected attachment url %q", rawURL)
	}

	return u.Path, nil
}

// attachmentFileName picks a local name for an attachment, falling back
// to the contact and attachment ids when the server gave no usable name.
func attachmentFileName(m ContactMessage, command string) string {
	name := filepath.Base(filepath.Clean("/" + m.AttachmentName))
	if name != "/" && name != "." {
		return name
	}

	ids := strings.Split(strings.Trim(strings.TrimPrefix(command, attachmentPrefix), "/"), "/")
	return "attachment-" + strings.Join(ids, "-")
}

// MarkContactAsPaid marks a contact as paid.
func (c *Client) MarkContactAsPaid(ctx context.Context, id string) (*Envelope[StatusMessage], error) {
	if err := check("MarkContactAsPaid", contactID{id}); err != nil {
		return nil, err
	}

	return get[StatusMessage](ctx, c, fmt.Sprintf("/api/contact_mark_as_paid/%s/", id), nil)
}

// PostMessageToContact posts msg and, when attachmentPath is set, the
// file at that path to the chat of a contact. At least one of them is
// required.
func (c *Client) PostMessageToContact(ctx context.Context, id, msg, attachmentPath string) (*Envelope[StatusMessage], error) {
	in := struct {
		ContactID  string `json:"contact_id" validate:"required,number"`
		Msg        string `json:"msg" validate:"required_without=Attachment"`
		Attachment string `json:"document" validate:"omitempty,file"`
	}{id, msg, attachmentPath}
	if err := check("PostMessageToContact", in); err != nil {
		return nil, err
	}

	var fields client.Args
	if msg != "" {
		fields = fields.Add("msg", msg)
	}

	var env Envelope[StatusMessage]
	command := fmt.Sprintf("/api/contact_message_post/%s/", id)
	if err := c.api.ExecuteMultipart(ctx, command, fields, attachmentPath, client.WithDestination(&env)); err != nil {
		return nil, err
	}

	return &env, nil
}

// StartDispute opens a dispute on a contact. topic is optional.
func (c *Client) StartDispute(ctx context.Context, id, topic string) (*Envelope[StatusMessage], error) {
	if err := check("StartDispute", contactID{id}); err != nil {
		return nil, err
	}

	var args client.Args
	if topic != "" {
		args = args.Add("topic", topic)
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/contact_dispute/%s/", id), args)
}

// CancelContact cancels a contact.
func (c *Client) CancelContact(ctx context.Context, id string) (*Envelope[StatusMessage], error) {
	if err := check("CancelContact", contactID{id}); err != nil {
		return nil, err
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/contact_cancel/%s/", id), nil)
}

// FundContact funds an unfunded local contact from the wallet.
func (c *Client) FundContact(ctx context.Context, id string) (*Envelope[StatusMessage], error) {
	if err := check("FundContact", contactID{id}); err != nil {
		return nil, err
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/contact_fund/%s/", id), nil)
}

// CreateContact opens a trade on adID for amount in the ad currency.
// message is optional.
func (c *Client) CreateContact(ctx context.Context, adID string, amount decimal.Decimal, message string) (*Envelope[CreatedContact], error) {
	in := struct {
		AdID   string          `json:"ad_id" validate:"required,number"`
		Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	}{adID, amount}
	if err := check("CreateContact", in); err != nil {
		return nil, err
	}

	args := client.NewArgs("amount", amount.String())
	if message != "" {
		args = args.Add("message", message)
	}

	return post[CreatedContact](ctx, c, fmt.Sprintf("/api/contact_create/%s/", adID), args)
}

// ContactInfo returns a single contact.
func (c *Client) ContactInfo(ctx context.Context, id string) (*Envelope[Contact], error) {
	if err := check("ContactInfo", contactID{id}); err != nil {
		return nil, err
	}

	return get[Contact](ctx, c, fmt.Sprintf("/api/contact_info/%s/", id), nil)
}

// ContactsInfo returns up to 50 contacts in one call.
func (c *Client) ContactsInfo(ctx context.Context, ids ...string) (*Envelope[ContactList], error) {
	in := struct {
		Contacts []string `json:"contacts" validate:"required,min=1,max=50,dive,required,number"`
	}{ids}
	if err := check("ContactsInfo", in); err != nil {
		return nil, err
	}

	return get[ContactList](ctx, c, "/api/contact_info/", client.NewArgs("contacts", joinIDs(ids)))
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}
