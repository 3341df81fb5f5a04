package category

import "testing"

func TestForPathIsCaseInsensitive(t *testing.T) {
	cases := []struct {
		path string
		want Category
	}{
		{"/photos/holiday.JPG", Image},
		{"/docs/readme.TXT", Document},
		{"movie.MKV", Video},
		{"backup.tar", Archive},
		{"main.Go", Code},
	}
	for _, tc := range cases {
		got, ok := ForPath(tc.path)
		if !ok || got != tc.want {
			t.Errorf("ForPath(%q) = %v, %v; want %v", tc.path, got, ok, tc.want)
		}
	}
}

func TestForPathUnknownExtension(t *testing.T) {
	if _, ok := ForPath("/tmp/file.xyz"); ok {
		t.Fatalf("unknown extension should not map to a category")
	}
	if _, ok := ForPath("/tmp/noextension"); ok {
		t.Fatalf("missing extension should not map to a category")
	}
}

func TestParse(t *testing.T) {
	if cat, ok := Parse(" Image "); !ok || cat != Image {
		t.Fatalf("Parse Image failed: %v %v", cat, ok)
	}
	if _, ok := Parse("spreadsheet"); ok {
		t.Fatalf("unknown category should not parse")
	}
}

func TestExtensionsFilters(t *testing.T) {
	exts := Extensions([]Category{Archive})
	if len(exts) != 8 {
		t.Fatalf("unexpected archive extension count: %d", len(exts))
	}
	for _, ext := range exts {
		if cat := extensions[ext]; cat != Archive {
			t.Errorf("extension %q mapped to %v", ext, cat)
		}
	}
}
