package catalog_test

import (
	"encoding/json"
	"testing"

	"StudioMemories/internal/catalog"
)

func TestCategoryLink(t *testing.T) {
	cases := map[string]string{
		"Wedding Albums":    "/category/wedding-albums",
		"Baby  Shoots!":     "/category/baby-shoots",
		"Pre-Wedding\tFun ": "/category/pre-wedding-fun-",
		"Café & Co":         "/category/caf--co",
	}
	for name, want := range cases {
		if got := catalog.CategoryLink(name); got != want {
			t.Errorf("CategoryLink(%q)=%q want %q", name, got, want)
		}
	}
}

func TestEntryID_NumericAndStringIDs(t *testing.T) {
	var banners []catalog.HeroBanner
	raw := `[{"id":1,"title":"a","description":"","image":"x"},{"id":"b_1f","title":"b","description":"","image":"y"}]`
	if err := json.Unmarshal([]byte(raw), &banners); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if banners[0].ID != "1" || banners[1].ID != "b_1f" {
		t.Fatalf("ids=%q,%q", banners[0].ID, banners[1].ID)
	}

	b, err := json.Marshal(banners)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != raw {
		t.Fatalf("round trip changed encoding:\n got %s\nwant %s", b, raw)
	}
}

func TestEntryID_NonCanonicalDigitsStayStrings(t *testing.T) {
	for _, id := range []string{"007", "+5", "-0", "12 "} {
		b, err := json.Marshal(catalog.EntryID(id))
		if err != nil {
			t.Fatalf("%q: marshal: %v", id, err)
		}
		var back catalog.EntryID
		if err := json.Unmarshal(b, &back); err != nil || string(back) != id {
			t.Fatalf("%q: round trip got %q (%s) err=%v", id, back, b, err)
		}
	}

	b, err := json.Marshal(catalog.EntryID("-12"))
	if err != nil || string(b) != "-12" {
		t.Fatalf("canonical id encoded as %s err=%v", b, err)
	}
}
