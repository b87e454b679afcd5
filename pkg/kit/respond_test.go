package kit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		max  int64
		ok   bool
		code int
	}{
		{"valid", `{"name":"frame"}`, 1 << 10, true, http.StatusOK},
		{"trailing data", `{"name":"a"} {"name":"b"}`, 1 << 10, false, http.StatusBadRequest},
		{"malformed", `{"name":`, 1 << 10, false, http.StatusBadRequest},
		{"too large", `{"name":"` + strings.Repeat("x", 64) + `"}`, 16, false, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			var v struct {
				Name string `json:"name"`
			}
			ok := DecodeJSON(rec, req, &v, tc.max)
			if ok != tc.ok || rec.Code != tc.code {
				t.Fatalf("ok=%v code=%d want ok=%v code=%d body=%s", ok, rec.Code, tc.ok, tc.code, rec.Body.String())
			}
			if !ok && !strings.Contains(rec.Body.String(), `"error":"bad json"`) {
				t.Fatalf("error body=%s", rec.Body.String())
			}
		})
	}
}

func TestMetricsAuth(t *testing.T) {
	h := MetricsAuth("tok")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for authz, want := range map[string]int{
		"":           http.StatusForbidden,
		"Bearer":     http.StatusForbidden,
		"Bearer bad": http.StatusForbidden,
		"Basic tok":  http.StatusForbidden,
		"Bearer tok": http.StatusOK,
	} {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if authz != "" {
			req.Header.Set("Authorization", authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("%q: status=%d want %d", authz, rec.Code, want)
		}
	}
}
