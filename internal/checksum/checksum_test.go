package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("")
	if got := Sum(nil); got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("Sum(nil) = %s", got)
	}
}

func TestMatches(t *testing.T) {
	sum := Sum([]byte("a"))
	if !Matches([]byte("a"), sum) {
		t.Error("expected match")
	}
	if Matches([]byte("b"), sum) {
		t.Error("unexpected match")
	}
}
