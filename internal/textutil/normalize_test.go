package textutil

import "testing"

func TestDecodeUTF8PassThrough(t *testing.T) {
	text, ok := Decode([]byte("héllo wörld"))
	if !ok || text != "héllo wörld" {
		t.Fatalf("utf-8 should pass through: %q %v", text, ok)
	}
}

func TestDecodeLatin1Fallback(t *testing.T) {
	// 0xE9 is é in ISO 8859-1 / Windows-1252 but invalid standalone UTF-8.
	text, ok := Decode([]byte{'c', 'a', 'f', 0xE9})
	if !ok {
		t.Fatalf("expected fallback decoding to succeed")
	}
	if text != "café" {
		t.Fatalf("unexpected decoded text: %q", text)
	}
}

func TestNormalizeTextCollapsesWhitespace(t *testing.T) {
	got := NormalizeText("  hello\t\tworld \n\n again ")
	if got != "hello world again" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestNormalizeCodeStripsComments(t *testing.T) {
	src := `package main

// a comment
# another comment
/* block start
func main() {
	x := 1   // trailing comments survive; only comment-only lines drop
}
`
	got := NormalizeCode(src)
	want := "package main func main() { x := 1 // trailing comments survive; only comment-only lines drop }"
	if got != want {
		t.Fatalf("unexpected normalization:\n got %q\nwant %q", got, want)
	}
}

func TestSortTokensIsOrderInsensitive(t *testing.T) {
	if SortTokens("b a c") != SortTokens("c b a") {
		t.Fatalf("token sort should erase ordering")
	}
}

func TestUniqueSortedTokensDeduplicates(t *testing.T) {
	if got := UniqueSortedTokens("x y x z y"); got != "x y z" {
		t.Fatalf("unexpected token set: %q", got)
	}
}
