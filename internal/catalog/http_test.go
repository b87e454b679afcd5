package catalog_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"StudioMemories/internal/admin"
	"StudioMemories/internal/catalog"
	"StudioMemories/internal/kv"
)

const metricsToken = "scrape-token"

func newCatalogTS(t *testing.T) *httptest.Server {
	t.Helper()

	store := newStore(t, kv.NewMemStore(), catalog.Options{})

	creds, err := admin.NewCredentials(admin.DefaultUsername, admin.DefaultPassword)
	if err != nil {
		t.Fatalf("admin.NewCredentials: %v", err)
	}

	s := &catalog.Server{
		Store: store,
		Admin: admin.NewServer(store, creds, zap.NewNop()),
		Log:   zap.NewNop(),
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "storefront",
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: true,
		MetricsToken:   metricsToken,
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func login(t *testing.T, c *http.Client, baseURL string) {
	t.Helper()

	resp, raw := doJSON(t, c, http.MethodPost, baseURL+"/admin/login", map[string]any{
		"username": admin.DefaultUsername,
		"password": admin.DefaultPassword,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d body=%s", resp.StatusCode, string(raw))
	}
}

func TestHTTP_PublicReads(t *testing.T) {
	ts := newCatalogTS(t)
	c := &http.Client{}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products?category=albums", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list status=%d", resp.StatusCode)
		}
		var ps []catalog.Product
		if err := json.Unmarshal(raw, &ps); err != nil {
			t.Fatalf("decode: %v body=%s", err, string(raw))
		}
		if len(ps) != 2 {
			t.Fatalf("albums=%d want 2", len(ps))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products/2", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get status=%d", resp.StatusCode)
		}
		var p catalog.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.Name != "Premium Leather Album" || len(p.Images) != 4 {
			t.Fatalf("product=%+v", p)
		}
	}

	for path, want := range map[string]int{
		"/products/999":  http.StatusNotFound,
		"/products/abc":  http.StatusBadRequest,
		"/banners":       http.StatusOK,
		"/categories":    http.StatusOK,
		"/featured":      http.StatusOK,
		"/healthz":       http.StatusOK,
		"/readyz":        http.StatusOK,
		"/admin/session": http.StatusOK,
	} {
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+path, nil, nil)
		if resp.StatusCode != want {
			t.Fatalf("%s status=%d want %d body=%s", path, resp.StatusCode, want, string(raw))
		}
	}

	{
		_, raw := doJSON(t, c, http.MethodGet, ts.URL+"/featured", nil, nil)
		var f struct {
			TrendingProductIDs []int64           `json:"trendingProductIds"`
			BestSellers        []catalog.Product `json:"bestSellers"`
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("decode featured: %v", err)
		}
		if len(f.TrendingProductIDs) != 3 || len(f.BestSellers) != 3 {
			t.Fatalf("featured=%+v", f)
		}
	}
}

func TestHTTP_AdminRoutesRequireLogin(t *testing.T) {
	ts := newCatalogTS(t)
	c := &http.Client{}

	resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/products", map[string]any{
		"name": "x", "price": 1, "mainImage": "m",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d body=%s", resp.StatusCode, string(raw))
	}

	resp, _ = doJSON(t, c, http.MethodPost, ts.URL+"/admin/login", map[string]any{
		"username": admin.DefaultUsername,
		"password": "wrong",
	}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d", resp.StatusCode)
	}

	resp, _ = doJSON(t, c, http.MethodDelete, ts.URL+"/admin/products/1", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("delete status=%d", resp.StatusCode)
	}
}

func TestHTTP_AdminProductLifecycle(t *testing.T) {
	ts := newCatalogTS(t)
	c := &http.Client{}
	login(t, c, ts.URL)

	for _, body := range []map[string]any{
		{"name": "  ", "price": 10, "mainImage": "m"},
		{"name": "Print", "price": "abc", "mainImage": "m"},
		{"name": "Print", "price": 10},
	} {
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/products", body, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%v: status=%d body=%s", body, resp.StatusCode, string(raw))
		}
	}

	var created catalog.Product
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/products", map[string]any{
			"name":           " Canvas Print ",
			"price":          "10",
			"mainImage":      "data:image/png;base64,AA==",
			"carouselImages": []string{"c1", "c2"},
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", resp.StatusCode, string(raw))
		}
		if err := json.Unmarshal(raw, &created); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if created.Name != "Canvas Print" || created.Price != 10 || len(created.Images) != 3 {
			t.Fatalf("created=%+v", created)
		}
	}

	productURL := fmt.Sprintf("%s/admin/products/%d", ts.URL, created.ID)

	{
		resp, raw := doJSON(t, c, http.MethodPatch, productURL, map[string]any{"mainImage": "new.jpg"}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("patch status=%d body=%s", resp.StatusCode, string(raw))
		}
		var p catalog.Product
		_ = json.Unmarshal(raw, &p)
		if p.Image != "new.jpg" || len(p.Images) != 3 || p.Images[1] != "c1" {
			t.Fatalf("patched=%+v", p)
		}
	}

	if resp, _ := doJSON(t, c, http.MethodPatch, ts.URL+"/admin/products/999", map[string]any{"name": "x"}, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("patch missing status=%d", resp.StatusCode)
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, productURL+"/trending", nil, nil)
		var m struct {
			Member bool `json:"member"`
		}
		_ = json.Unmarshal(raw, &m)
		if resp.StatusCode != http.StatusOK || !m.Member {
			t.Fatalf("toggle status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	if resp, _ := doJSON(t, c, http.MethodDelete, productURL, nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status=%d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, c, http.MethodGet, fmt.Sprintf("%s/products/%d", ts.URL, created.ID), nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted status=%d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, c, http.MethodDelete, productURL, nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("repeat delete status=%d", resp.StatusCode)
	}
}

func TestHTTP_AdminBannersAndCategories(t *testing.T) {
	ts := newCatalogTS(t)
	c := &http.Client{}
	login(t, c, ts.URL)

	if resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/admin/banners", map[string]any{"title": "No image"}, nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("banner without image status=%d", resp.StatusCode)
	}

	var banner catalog.HeroBanner
	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/banners", map[string]any{
			"title": "Festive Offer", "description": "20% off", "image": "img",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("banner status=%d body=%s", resp.StatusCode, string(raw))
		}
		_ = json.Unmarshal(raw, &banner)
	}

	{
		_, raw := doJSON(t, c, http.MethodGet, ts.URL+"/banners", nil, nil)
		var all []catalog.HeroBanner
		_ = json.Unmarshal(raw, &all)
		if len(all) != 5 || all[0].ID != banner.ID {
			t.Fatalf("banners=%+v", all)
		}
	}

	if resp, _ := doJSON(t, c, http.MethodDelete, ts.URL+"/admin/banners/"+string(banner.ID), nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete banner status=%d", resp.StatusCode)
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/admin/categories", map[string]any{
			"name": "Baby Shoots", "image": "img",
		}, nil)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("category status=%d body=%s", resp.StatusCode, string(raw))
		}
		var cat catalog.ShopCategory
		_ = json.Unmarshal(raw, &cat)
		if cat.Link != "/category/baby-shoots" {
			t.Fatalf("link=%q", cat.Link)
		}
	}

	if resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/admin/refresh", nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("refresh status=%d", resp.StatusCode)
	}

	if resp, _ := doJSON(t, c, http.MethodPost, ts.URL+"/admin/logout", nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status=%d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, c, http.MethodDelete, ts.URL+"/admin/categories/1", nil, nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("delete after logout status=%d", resp.StatusCode)
	}
}

func TestHTTP_MetricsRequireToken(t *testing.T) {
	ts := newCatalogTS(t)
	c := &http.Client{}

	if resp, _ := doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, nil); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}

	resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, map[string]string{
		"Authorization": "Bearer " + metricsToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status=%d", resp.StatusCode)
	}
	if !bytes.Contains(raw, []byte("http_requests_total")) {
		t.Fatalf("request counter missing from scrape")
	}
}

func TestHTTP_UnknownRoutesAnswerJSON(t *testing.T) {
	ts := newCatalogTS(t)
	c := &http.Client{}

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/no-such-page", http.StatusNotFound},
		{http.MethodPut, "/products", http.StatusMethodNotAllowed},
	} {
		resp, raw := doJSON(t, c, tc.method, ts.URL+tc.path, nil, nil)
		if resp.StatusCode != tc.want {
			t.Fatalf("%s %s: status=%d want %d", tc.method, tc.path, resp.StatusCode, tc.want)
		}
		var body struct {
			Error     string `json:"error"`
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" || body.RequestID == "" {
			t.Fatalf("%s %s: body=%s err=%v", tc.method, tc.path, string(raw), err)
		}
	}
}

func TestNewHandler_NilLoggerAndRegistry(t *testing.T) {
	s := &catalog.Server{Store: newStore(t, kv.NewMemStore(), catalog.Options{})}
	ts := httptest.NewServer(catalog.NewHandler(s, catalog.HTTPDeps{Service: "storefront"}))
	t.Cleanup(ts.Close)

	if resp, _ := doJSON(t, &http.Client{}, http.MethodGet, ts.URL+"/products", nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, &http.Client{}, http.MethodGet, ts.URL+"/metrics", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("metrics without registry status=%d want 404", resp.StatusCode)
	}
}
