package fakeapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

const fieldRequired = "This field is required."

// form parses a urlencoded body and checks that every field in
// required is present and non-empty.
func form(r *http.Request, required ...string) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, NewError(http.StatusBadRequest, CodeInvalidArguments, "Malformed form body")
	}

	fe := make(FieldErrors)
	for _, f := range required {
		if r.PostForm.Get(f) == "" {
			fe.Add(f, fieldRequired)
		}
	}

	return r.PostForm, fe.Err()
}

// positiveAmount parses field of vals as a decimal above zero.
func positiveAmount(vals url.Values, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(vals.Get(field))
	if err != nil {
		return decimal.Decimal{}, FieldErrors{field: {"Enter a number."}}
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, FieldErrors{field: {"Ensure this value is greater than 0."}}
	}

	return d, nil
}

// pathID returns the numeric path value name.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, NewError(http.StatusNotFound, CodeNotFound, "Not found")
	}

	return id, nil
}

// origin is the scheme and host the request was addressed to.
func origin(r *http.Request) string {
	if r.TLS != nil {
		return "https://" + r.Host
	}
	return "http://" + r.Host
}
