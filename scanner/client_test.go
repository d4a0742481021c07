package scanner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestScanRaid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/scan/raid" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req["image_url"] != "https://cdn.example/shot.png" {
			t.Errorf("unexpected image url %q", req["image_url"])
		}
		json.NewEncoder(w).Encode(Result{
			GymName: "Town Hall", EggLevel: "5", Minutes: 45,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.ScanRaid(context.Background(), "https://cdn.example/shot.png")
	if err != nil {
		t.Fatal(err)
	}
	if res.GymName != "Town Hall" || res.EggLevel != "5" || res.Minutes != 45 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestScanRaidRejectsEmptyRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{Minutes: 45})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.ScanRaid(context.Background(), "x"); err == nil {
		t.Fatal("expected error when no gym name was read")
	}
}

func TestScanRaidDisabled(t *testing.T) {
	c := NewClient("")
	if c.Enabled() {
		t.Fatal("empty base url should disable the client")
	}
	if _, err := c.ScanRaid(context.Background(), "x"); err == nil {
		t.Fatal("disabled client should error")
	}
}
