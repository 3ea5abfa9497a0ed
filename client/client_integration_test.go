//go:build integration

package client_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/adamwoolhether/localbitcoins/client"
)

func TestIntegration_ExecutePublic_Market(t *testing.T) {
	c, err := client.Build()
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	var page map[string]json.RawMessage
	if err := c.ExecutePublic(t.Context(), "/buy-bitcoins-online/EUR/.json", nil, client.WithDestination(&page)); err != nil {
		t.Fatalf("public call failed: %v", err)
	}

	if _, ok := page["data"]; !ok {
		t.Errorf("expected a data member, got keys %v", keys(page))
	}
}

func TestIntegration_Execute_BadKeys(t *testing.T) {
	c, err := client.Build(client.WithCredentials("not-a-key", "not-a-secret"))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	err = c.Execute(t.Context(), "/api/myself/", http.MethodGet, nil)

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *client.APIError, got %T: %v", err, err)
	}
	t.Logf("server rejected invalid keys: %v", apiErr)
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
