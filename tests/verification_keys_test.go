package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

type keyCreateData struct {
	ClientID string `json:"client_id"`
	ApiKey   string `json:"api_key"`
}

func uniqueClientID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func createKey(t *testing.T, clientID string, limit int64) keyCreateData {
	t.Helper()

	payload := map[string]any{
		"client_id":     clientID,
		"monthly_limit": limit,
	}

	status, body := doJSON(t, http.MethodPost, "/api/v1/admin/keys", payload, asAdmin(t))
	if status != http.StatusCreated {
		errEnv := decodeError(t, body)
		t.Fatalf("create key failed: status=%d message=%q", status, errEnv.Message)
	}

	var data keyCreateData
	decodeSuccess(t, body, &data)
	if data.ApiKey == "" {
		t.Fatal("create key response missing api_key")
	}

	return data
}

func revokeKey(t *testing.T, clientID string) {
	t.Helper()

	status, body := doJSON(t, http.MethodDelete, "/api/v1/admin/keys/"+clientID, nil, asAdmin(t))
	if status != http.StatusNoContent {
		errEnv := decodeError(t, body)
		t.Fatalf("revoke key failed: status=%d message=%q", status, errEnv.Message)
	}
}

func TestAdminKeyLifecycle(t *testing.T) {
	clientID := uniqueClientID("e2e-lifecycle")
	created := createKey(t, clientID, 100)
	defer revokeKey(t, clientID)

	if created.ClientID != clientID {
		t.Fatalf("expected client id %q, got %q", clientID, created.ClientID)
	}

	// Duplicate client id conflicts.
	payload := map[string]any{"client_id": clientID, "monthly_limit": 10}
	status, _ := doJSON(t, http.MethodPost, "/api/v1/admin/keys", payload, asAdmin(t))
	if status != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", status)
	}

	// Listing includes the new key.
	status, body := doJSON(t, http.MethodGet, "/api/v1/admin/keys", nil, asAdmin(t))
	if status != http.StatusOK {
		t.Fatalf("list keys: status=%d", status)
	}
	var list struct {
		Keys []struct {
			ClientID string `json:"client_id"`
			Status   string `json:"status"`
		} `json:"keys"`
	}
	decodeSuccess(t, body, &list)
	found := false
	for _, k := range list.Keys {
		if k.ClientID == clientID {
			found = true
			if k.Status != "active" {
				t.Fatalf("expected new key active, got %q", k.Status)
			}
		}
	}
	if !found {
		t.Fatalf("key %q missing from list", clientID)
	}

	// Pause, then check stats reflect it.
	pause := map[string]any{"status": "paused"}
	status, body = doJSON(t, http.MethodPatch, "/api/v1/admin/keys/"+clientID, pause, asAdmin(t))
	if status != http.StatusNoContent && status != http.StatusOK {
		errEnv := decodeError(t, body)
		t.Fatalf("pause key: status=%d message=%q", status, errEnv.Message)
	}

	status, body = doJSON(t, http.MethodGet, "/api/v1/admin/keys/"+clientID+"/stats", nil, asAdmin(t))
	if status != http.StatusOK {
		t.Fatalf("stats: status=%d", status)
	}
	var stats struct {
		ClientID       string `json:"client_id"`
		Status         string `json:"status"`
		TotalGenerated int64  `json:"total_generated"`
	}
	decodeSuccess(t, body, &stats)
	if stats.Status != "paused" {
		t.Fatalf("expected paused, got %q", stats.Status)
	}
}

func TestAdminKeyRevokeUnknown(t *testing.T) {
	status, _ := doJSON(t, http.MethodDelete, "/api/v1/admin/keys/"+uniqueClientID("e2e-ghost"), nil, asAdmin(t))
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestAdminEndpointsRequireKey(t *testing.T) {
	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/admin/keys"},
		{http.MethodGet, "/api/v1/admin/keys"},
		{http.MethodPatch, "/api/v1/admin/keys/some-client"},
		{http.MethodDelete, "/api/v1/admin/keys/some-client"},
		{http.MethodGet, "/api/v1/admin/keys/some-client/stats"},
	}

	for _, tc := range cases {
		status, body := doJSON(t, tc.method, tc.path, map[string]any{}, nil)
		if status != http.StatusUnauthorized {
			t.Fatalf("%s %s without admin key: expected 401, got %d", tc.method, tc.path, status)
		}
		errEnv := decodeError(t, body)
		if errEnv.Message == "" {
			t.Fatalf("%s %s: expected an error message", tc.method, tc.path)
		}

		status, _ = doJSON(t, tc.method, tc.path, map[string]any{}, map[string]string{"X-Admin-Key": "wrong-key"})
		if status != http.StatusUnauthorized {
			t.Fatalf("%s %s with wrong admin key: expected 401, got %d", tc.method, tc.path, status)
		}
	}
}
