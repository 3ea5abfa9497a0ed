package fakeapi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/shopspring/decimal"
)

// rates are the fixed market inputs price equations are evaluated against.
var rates = map[string]any{
	"btc_in_usd": 10000.0,
	"USD_in_USD": 1.0,
	"USD_in_EUR": 0.85,
	"USD_in_GBP": 0.75,
}

var errBadEquation = errors.New("invalid price equation")

const badEquationMsg = "Invalid price equation."

// evalPrice evaluates a price equation such as "btc_in_usd*USD_in_EUR*1.05"
// and returns the price rounded to cents.
func evalPrice(equation string) (decimal.Decimal, error) {
	program, err := expr.Compile(equation, expr.Env(rates))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("compiling %q: %w", equation, errBadEquation)
	}

	out, err := expr.Run(program, rates)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("running %q: %w", equation, errBadEquation)
	}

	var p decimal.Decimal
	switch v := out.(type) {
	case float64:
		p = decimal.NewFromFloat(v)
	case int:
		p = decimal.NewFromInt(int64(v))
	default:
		return decimal.Decimal{}, fmt.Errorf("%q is not a number: %w", equation, errBadEquation)
	}
	if !p.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%q is not positive: %w", equation, errBadEquation)
	}

	return p.Round(2), nil
}

// reprice refreshes the derived prices of ad from its equation.
func reprice(ad map[string]any) error {
	p, err := evalPrice(fmt.Sprint(ad["price_equation"]))
	if err != nil {
		return err
	}

	usd := p
	if rate, ok := rates["USD_in_"+strings.ToUpper(fmt.Sprint(ad["currency"]))].(float64); ok {
		usd = p.Div(decimal.NewFromFloat(rate)).Round(2)
	}

	ad["temp_price"] = p.StringFixed(2)
	ad["temp_price_usd"] = usd.StringFixed(2)

	return nil
}
