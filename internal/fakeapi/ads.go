package fakeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

var (
	adBoolFields    = []string{"visible", "require_identification", "sms_verification_required", "require_trusted_by_advertiser", "trusted_required", "track_max_amount"}
	adDecimalFields = []string{"min_amount", "max_amount"}
	adCoordFields   = []string{"lat", "lon"}
	adStringFields  = []string{"price_equation", "countrycode", "currency", "msg", "opening_hours", "bank_name", "limit_to_fiat_amounts", "city", "location_string"}
	adRequired      = []string{"price_equation", "countrycode", "currency"}
)

type adPage struct {
	AdList  []map[string]any `json:"ad_list"`
	AdCount int              `json:"ad_count"`
}

func adEntry(ad map[string]any) map[string]any {
	id := fmt.Sprint(ad["ad_id"])

	return map[string]any{
		"data": maps.Clone(ad),
		"actions": map[string]string{
			"public_view": "/ad/" + id,
			"html_edit":   "/ads_edit/" + id,
			"change_form": "/api/ad/" + id + "/",
		},
	}
}

func owner(ad map[string]any) string {
	profile, _ := ad["profile"].(map[string]any)
	return fmt.Sprint(profile["username"])
}

// collectAds returns the ads named by ids, in order, that pass keep.
// s.mu must be held.
func (s *Service) collectAds(ids []string, keep func(map[string]any) bool) adPage {
	page := adPage{AdList: []map[string]any{}}
	for _, id := range ids {
		ad, ok := s.ads[id]
		if ok && (keep == nil || keep(ad)) {
			page.AdList = append(page.AdList, adEntry(ad))
		}
	}
	page.AdCount = len(page.AdList)

	return page
}

func (s *Service) ownAds(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	username := GetValues(ctx).Username

	s.mu.Lock()
	page := s.collectAds(s.adOrder, func(ad map[string]any) bool { return owner(ad) == username })
	s.mu.Unlock()

	return RespondData(ctx, w, page)
}

func (s *Service) getAd(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	s.mu.Lock()
	page := s.collectAds([]string{r.PathValue("id")}, nil)
	s.mu.Unlock()

	return RespondData(ctx, w, page)
}

func (s *Service) adList(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	raw := r.URL.Query().Get("ads")
	if raw == "" {
		return FieldErrors{"ads": {fieldRequired}}
	}

	s.mu.Lock()
	page := s.collectAds(strings.Split(raw, ","), nil)
	s.mu.Unlock()

	return RespondData(ctx, w, page)
}

// withOwnAd runs fn under the lock on the caller's ad named by the id
// path value.
func (s *Service) withOwnAd(ctx context.Context, r *http.Request, fn func(id string, ad map[string]any) error) error {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()

	ad, ok := s.ads[id]
	if !ok || owner(ad) != GetValues(ctx).Username {
		return NewError(http.StatusNotFound, CodeNotFound, "Advertisement not found")
	}

	return fn(id, ad)
}

func (s *Service) deleteAd(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	err := s.withOwnAd(ctx, r, func(id string, _ map[string]any) error {
		delete(s.ads, id)
		s.adOrder = slices.DeleteFunc(s.adOrder, func(v string) bool { return v == id })
		return nil
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, map[string]string{"message": "Ad deleted successfully!"})
}

func (s *Service) editAd(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vals, err := form(r, adRequired...)
	if err != nil {
		return err
	}

	changes, err := adChanges(vals)
	if err != nil {
		return err
	}

	trace.SpanFromContext(ctx).AddEvent(fmt.Sprintf("ad edit: %d fields", len(changes)))

	err = s.withOwnAd(ctx, r, func(id string, ad map[string]any) error {
		next := maps.Clone(ad)
		maps.Copy(next, changes)
		if v, ok := changes["max_amount"]; ok {
			next["max_amount_available"] = v
		}
		return s.storeAd(id, next)
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, map[string]string{"message": "Ad changed successfully!"})
}

func (s *Service) editAdEquation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	vals, err := form(r, "price_equation")
	if err != nil {
		return err
	}

	err = s.withOwnAd(ctx, r, func(id string, ad map[string]any) error {
		next := maps.Clone(ad)
		next["price_equation"] = vals.Get("price_equation")
		return s.storeAd(id, next)
	})
	if err != nil {
		return err
	}

	return RespondData(ctx, w, map[string]string{"message": "Price equation changed."})
}

// storeAd reprices ad and replaces the stored copy. s.mu must be held.
func (s *Service) storeAd(id string, ad map[string]any) error {
	if err := reprice(ad); err != nil {
		return FieldErrors{"price_equation": {badEquationMsg}}
	}
	s.ads[id] = ad

	return nil
}

// adChanges converts the edit form to ad fields, typed the way the ad
// is rendered back.
func adChanges(vals url.Values) (map[string]any, error) {
	changes := make(map[string]any)
	fe := make(FieldErrors)

	for _, k := range adStringFields {
		if vals.Has(k) {
			changes[k] = vals.Get(k)
		}
	}

	for _, k := range adBoolFields {
		if !vals.Has(k) {
			continue
		}
		switch strings.ToLower(vals.Get(k)) {
		case "1", "true", "on":
			changes[k] = true
		case "0", "false", "off", "":
			changes[k] = false
		default:
			fe.Add(k, "Enter a valid boolean.")
		}
	}

	for _, k := range adDecimalFields {
		if !vals.Has(k) {
			continue
		}
		v := vals.Get(k)
		if v == "" {
			changes[k] = nil
			continue
		}
		if _, err := decimal.NewFromString(v); err != nil {
			fe.Add(k, "Enter a number.")
			continue
		}
		changes[k] = v
	}

	for _, k := range adCoordFields {
		if !vals.Has(k) {
			continue
		}
		if _, err := strconv.ParseFloat(vals.Get(k), 64); err != nil {
			fe.Add(k, "Enter a number.")
			continue
		}
		changes[k] = json.Number(vals.Get(k))
	}

	if vals.Has("email") {
		if v := vals.Get("email"); v != "" {
			changes["email"] = v
		} else {
			changes["email"] = nil
		}
	}

	if vals.Has("details-phone_number") {
		changes["account_details"] = map[string]any{"phone_number": vals.Get("details-phone_number")}
	}

	return changes, fe.Err()
}

const marketPageSize = 50

type marketPage struct {
	Data       adPage            `json:"data"`
	Pagination map[string]string `json:"pagination,omitempty"`
}

// market serves the public listing of visible ads of tradeType. The path
// is /{listing}/{currency}/[{payment method}/].json.
func (s *Service) market(tradeType string) Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		parts := strings.Split(strings.TrimSuffix(r.PathValue("rest"), ".json"), "/")
		currency := parts[0]
		var method string
		if len(parts) > 2 {
			method = strings.ReplaceAll(parts[1], "-", "_")
		}

		page := 1
		if raw := r.URL.Query().Get("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return NewError(http.StatusNotFound, CodeNotFound, "Invalid page")
			}
			page = n
		}

		s.mu.Lock()
		all := s.collectAds(s.adOrder, func(ad map[string]any) bool {
			return ad["visible"] == true &&
				ad["trade_type"] == tradeType &&
				strings.EqualFold(fmt.Sprint(ad["currency"]), currency) &&
				(method == "" || strings.EqualFold(fmt.Sprint(ad["online_provider"]), method))
		})
		s.mu.Unlock()

		out := marketPage{Pagination: make(map[string]string)}
		start := min((page-1)*marketPageSize, len(all.AdList))
		end := min(start+marketPageSize, len(all.AdList))
		out.Data.AdList = all.AdList[start:end]
		out.Data.AdCount = len(out.Data.AdList)

		if end < len(all.AdList) {
			out.Pagination["next"] = fmt.Sprintf("%s%s?page=%d", origin(r), r.URL.Path, page+1)
		}
		if page > 1 {
			out.Pagination["prev"] = fmt.Sprintf("%s%s?page=%d", origin(r), r.URL.Path, page-1)
		}

		return RespondJSON(ctx, w, http.StatusOK, out)
	}
}
