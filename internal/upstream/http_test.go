package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientCall(t *testing.T) {
	var gotPath, gotAuth, gotProviders string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotProviders = r.URL.Query().Get("providers")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"net_amount":"1.234,56"}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Token: "secret", Timeout: 2 * time.Second})

	env, err := c.Call(context.Background(), OpNetSales, map[string]string{"providers": "A,B"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if gotPath != "/net_sales" || gotAuth != "Bearer secret" || gotProviders != "A,B" {
		t.Fatalf("unexpected request: %q %q %q", gotPath, gotAuth, gotProviders)
	}
	if !env.Success || env.Row == nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Row["net_amount"] != "1.234,56" {
		t.Fatalf("unexpected row: %+v", env.Row)
	}
}

func TestClientCallNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second})
	if _, err := c.Call(context.Background(), OpNetSales, nil); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSuccess bool
		wantRows    int
		wantRow     bool
	}{
		{
			name:        "object payload",
			body:        `{"status":"success","data":{"units":"10"}}`,
			wantSuccess: true,
			wantRow:     true,
		},
		{
			name:        "array payload",
			body:        `{"status":"success","data":[{"units":"1"},{"units":"2"}]}`,
			wantSuccess: true,
			wantRows:    2,
		},
		{
			name:        "error status",
			body:        `{"status":"error","message":"boom"}`,
			wantSuccess: false,
		},
		{
			name:        "empty array",
			body:        `{"status":"success","data":[]}`,
			wantSuccess: true,
		},
		{
			name:        "garbage",
			body:        `not json at all`,
			wantSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := parseEnvelope([]byte(tt.body))
			if env.Success != tt.wantSuccess {
				t.Fatalf("success = %v, want %v", env.Success, tt.wantSuccess)
			}
			if len(env.Rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(env.Rows), tt.wantRows)
			}
			if tt.wantRow != (env.Row != nil) {
				t.Fatalf("row presence = %v, want %v", env.Row != nil, tt.wantRow)
			}
		})
	}
}
