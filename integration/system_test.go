//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

var (
	baseURL   = getenv("E2E_BASE_URL", "http://localhost:8080")
	adminUser = getenv("E2E_ADMIN_USERNAME", "admin")
	adminPass = getenv("E2E_ADMIN_PASSWORD", "admin123")
)

type product struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Price          float64  `json:"price"`
	MainImage      string   `json:"mainImage"`
	CarouselImages []string `json:"carouselImages"`
	Images         []string `json:"images"`
	Image          string   `json:"image"`
}

func TestSystem_E2E_CatalogSurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var products []product
	doJSON(t, http.MethodGet, baseURL+"/products", nil, &products, 200)
	if len(products) == 0 {
		t.Fatalf("expected non-empty products")
	}

	doJSON(t, http.MethodPost, baseURL+"/admin/products", map[string]any{
		"name": "blocked", "price": 1, "mainImage": "data:image/png;base64,AA==",
	}, nil, 401)

	doJSON(t, http.MethodPost, baseURL+"/admin/login", map[string]any{
		"username": adminUser,
		"password": adminPass,
	}, nil, 200)
	t.Cleanup(func() {
		doJSON(t, http.MethodPost, baseURL+"/admin/logout", nil, nil, 200)
	})

	name := fmt.Sprintf("E2E Print %d", time.Now().UnixNano())
	var created product
	doJSON(t, http.MethodPost, baseURL+"/admin/products", map[string]any{
		"name":           name,
		"price":          "24.5",
		"mainImage":      "data:image/png;base64,AA==",
		"carouselImages": []string{"data:image/png;base64,AQ=="},
	}, &created, 201)
	if created.ID == 0 || created.Price != 24.5 || len(created.Images) != 2 {
		t.Fatalf("created product: %+v", created)
	}
	t.Cleanup(func() {
		doJSON(t, http.MethodDelete, fmt.Sprintf("%s/admin/products/%d", baseURL, created.ID), nil, nil, 204)
	})

	var member struct {
		Member bool `json:"member"`
	}
	doJSON(t, http.MethodPost, fmt.Sprintf("%s/admin/products/%d/trending", baseURL, created.ID), nil, &member, 200)
	if !member.Member {
		t.Fatalf("product should be trending after toggle")
	}

	if os.Getenv("E2E_RESTART") == "1" {
		restartService(t, ctx, "storefront")
		waitReady(t, ctx, baseURL+"/readyz")
	}

	var got product
	doJSON(t, http.MethodGet, fmt.Sprintf("%s/products/%d", baseURL, created.ID), nil, &got, 200)
	if got.Name != name || got.MainImage != created.MainImage {
		t.Fatalf("got %+v want %+v", got, created)
	}

	var trending []product
	doJSON(t, http.MethodGet, baseURL+"/products?featured=trending", nil, &trending, 200)
	found := false
	for _, p := range trending {
		if p.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created product missing from trending listing")
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

var client = &http.Client{Timeout: 5 * time.Second}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
