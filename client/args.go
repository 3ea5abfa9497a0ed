package client

import (
	"encoding/hex"
	"net/url"
	"strings"
)

// Param is a single key/value pair sent to the API.
type Param struct {
	Key   string
	Value string
}

// Args is an ordered set of request parameters. The order in which
// parameters are added is the order in which they are encoded, sent
// and signed.
type Args []Param

// NewArgs builds Args from alternating keys and values.
// A trailing key without a value is paired with an empty string.
func NewArgs(kv ...string) Args {
	args := make(Args, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		var v string
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		args = append(args, Param{Key: kv[i], Value: v})
	}

	return args
}

// Add appends a parameter, keeping any existing entry with the same key.
func (a Args) Add(key, value string) Args {
	return append(a, Param{Key: key, Value: value})
}

// Set replaces the value of the first entry matching key in place,
// or appends a new entry when the key is not present.
func (a Args) Set(key, value string) Args {
	for i := range a {
		if a[i].Key == key {
			a[i].Value = value
			return a
		}
	}

	return append(a, Param{Key: key, Value: value})
}

// Get returns the value for key and whether it was present.
func (a Args) Get(key string) (string, bool) {
	for _, p := range a {
		if p.Key == key {
			return p.Value, true
		}
	}

	return "", false
}

// Len reports the number of parameters.
func (a Args) Len() int { return len(a) }

// Encode is shorthand for [EncodeParams].
func (a Args) Encode() string { return EncodeParams(a) }

// EncodeParams renders args as k1=v1&k2=v2 in insertion order.
//
// Keys and values are escaped so only A-Z a-z 0-9 - _ . ~ remain
// literal; every other UTF-8 byte becomes %XX with uppercase hex and
// spaces become '+'. The result is what gets signed, so it must never
// be re-sorted or re-encoded by the transport.
func EncodeParams(args Args) string {
	if len(args) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, p := range args {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.Value))
	}

	return sb.String()
}

// BytesToHex renders b as uppercase hexadecimal, two digits per byte.
func BytesToHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
