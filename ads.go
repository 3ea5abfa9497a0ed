package localbitcoins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/adamwoolhether/localbitcoins/client"
)

// ErrAdNotFound is returned by [Client.EditAd] when preloading finds no ad.
var ErrAdNotFound = errors.New("ad not found")

// editableAdFields lists, in send order, the fields copied from an ad
// when it is preloaded for editing.
var editableAdFields = []string{
	"lat",
	"price_equation",
	"lon",
	"countrycode",
	"currency",
	"min_amount",
	"max_amount",
	"msg",
	"require_identification",
	"sms_verification_required",
	"require_trusted_by_advertiser",
	"trusted_required",
	"track_max_amount",
	"email",
	"visible",
}

type adID struct {
	AdID string `json:"ad_id" validate:"required,number"`
}

// OwnAds returns the token owner's advertisements.
func (c *Client) OwnAds(ctx context.Context) (*Envelope[AdList], error) {
	return get[AdList](ctx, c, "/api/ads/", nil)
}

// Ad returns a single advertisement.
func (c *Client) Ad(ctx context.Context, id string) (*Envelope[AdList], error) {
	if err := check("Ad", adID{id}); err != nil {
		return nil, err
	}

	return get[AdList](ctx, c, fmt.Sprintf("/api/ad-get/%s/", id), nil)
}

// AdList returns several advertisements in one call.
func (c *Client) AdList(ctx context.Context, ids ...string) (*Envelope[AdList], error) {
	in := struct {
		Ads []string `json:"ads" validate:"required,min=1,max=50,dive,required,number"`
	}{ids}
	if err := check("AdList", in); err != nil {
		return nil, err
	}

	return get[AdList](ctx, c, "/api/ad-get/", client.NewArgs("ads", joinIDs(ids)))
}

// DeleteAd deletes an advertisement.
func (c *Client) DeleteAd(ctx context.Context, id string) (*Envelope[StatusMessage], error) {
	if err := check("DeleteAd", adID{id}); err != nil {
		return nil, err
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/ad-delete/%s/", id), nil)
}

// EditAdVisibility shows or hides an advertisement, keeping every other
// field as it currently is.
func (c *Client) EditAdVisibility(ctx context.Context, id string, visible bool) (*Envelope[StatusMessage], error) {
	v := "0"
	if visible {
		v = "1"
	}

	return c.EditAd(ctx, id, client.NewArgs("visible", v), true)
}

// EditAd updates an advertisement with values. The API expects the full
// set of fields, so with preload the current ad is fetched first and
// values are applied on top of it.
func (c *Client) EditAd(ctx context.Context, id string, values client.Args, preload bool) (*Envelope[StatusMessage], error) {
	in := struct {
		AdID    string      `json:"ad_id" validate:"required,number"`
		Values  client.Args `json:"values" validate:"required"`
		Preload bool        `json:"preload"`
	}{id, values, preload}
	if err := check("EditAd", in); err != nil {
		return nil, err
	}

	var args client.Args
	if preload {
		var err error
		if args, err = c.currentAd(ctx, id); err != nil {
			return nil, err
		}
	}

	for _, p := range values {
		args = args.Set(p.Key, p.Value)
	}

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/ad/%s/", id), args)
}

// EditAdPriceEquation replaces the price equation of an advertisement.
func (c *Client) EditAdPriceEquation(ctx context.Context, id string, equation decimal.Decimal) (*Envelope[StatusMessage], error) {
	in := struct {
		AdID          string          `json:"ad_id" validate:"required,number"`
		PriceEquation decimal.Decimal `json:"price_equation" validate:"gt=0"`
	}{id, equation}
	if err := check("EditAdPriceEquation", in); err != nil {
		return nil, err
	}

	args := client.NewArgs("price_equation", equation.String())

	return post[StatusMessage](ctx, c, fmt.Sprintf("/api/ad-equation/%s/", id), args)
}

type rawAdList struct {
	AdList []struct {
		Data map[string]json.RawMessage `json:"data"`
	} `json:"ad_list"`
	AdCount int `json:"ad_count"`
}

// currentAd fetches an ad and converts its editable fields to Args.
func (c *Client) currentAd(ctx context.Context, id string) (client.Args, error) {
	env, err := get[rawAdList](ctx, c, fmt.Sprintf("/api/ad-get/%s/", id), nil)
	if err != nil {
		return nil, fmt.Errorf("preloading ad: %w", err)
	}
	if env.Data.AdCount < 1 || len(env.Data.AdList) == 0 {
		return nil, fmt.Errorf("preloading ad %s: %w", id, ErrAdNotFound)
	}

	return adEditArgs(env.Data.AdList[0].Data), nil
}

// adEditArgs maps an ad's data to the form fields of the edit endpoint.
func adEditArgs(data map[string]json.RawMessage) client.Args {
	args := make(client.Args, 0, len(editableAdFields)+4)
	for _, k := range editableAdFields {
		args = args.Add(k, formValue(data[k]))
	}

	if v := formValue(data["opening_hours"]); v != "" && v != "null" {
		args = args.Set("opening_hours", v)
	}
	if v := formValue(data["limit_to_fiat_amounts"]); v != "" {
		args = args.Set("limit_to_fiat_amounts", v)
	}
	if v := formValue(data["bank_name"]); v != "" {
		args = args.Set("bank_name", v)
	}

	var details struct {
		PhoneNumber json.RawMessage `json:"phone_number"`
	}
	if raw := data["account_details"]; len(raw) > 0 && json.Unmarshal(raw, &details) == nil {
		if phone := bytes.TrimSpace(details.PhoneNumber); len(phone) > 0 && string(phone) != "null" {
			args = args.Set("details-phone_number", formValue(phone))
		}
	}

	return args
}

// formValue renders a JSON scalar the way the edit form expects it.
// Missing and null values become "", booleans "True" or "False", and
// strings are unquoted. Anything else is sent as compact JSON.
func formValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, string(raw) == "null":
		return ""
	case string(raw) == "true":
		return "True"
	case string(raw) == "false":
		return "False"
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case raw[0] == '{', raw[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}

	return string(raw)
}
