// Package slug implements the reading filename convention: a base file named
// <base>.md holds the first read of a work, and rereads are stored next to it
// as <base>-NN.md with a zero-padded sequence number of at least two digits.
//
// Everything here is pure string manipulation; no function touches the disk.
package slug

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/readlog/internal/apperr"
)

// Ext is the extension of every reading file.
const Ext = ".md"

var (
	sequenceRe = regexp.MustCompile(`^(.+)-(\d+)$`)
	filenameRe = regexp.MustCompile(`^[a-z0-9-]+(-\d+)?\.md$`)
	slugRe     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

	// Letters that do not decompose into base letter + mark under NFD.
	ligatures = strings.NewReplacer(
		"ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "ł", "l", "đ", "d", "þ", "th", "ð", "d",
	)
)

// Name is the identity derived from a reading filename stem.
type Name struct {
	Base     string
	Sequence int
}

// Parse splits a filename stem (no extension) into its base slug and
// sequence. A stem without a trailing -<digits> suffix is a base file with
// sequence 1. The second return value is false for empty or hyphen-only
// stems.
func Parse(stem string) (Name, bool) {
	if strings.Trim(stem, "-") == "" {
		return Name{}, false
	}
	if m := sequenceRe.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
			return Name{Base: m[1], Sequence: n}, true
		}
	}
	return Name{Base: stem, Sequence: 1}, true
}

// Slugify renders a title as a lowercase, hyphen-separated ASCII slug.
// Diacritics are stripped, "&" becomes "and" and every run of other
// characters collapses to a single hyphen.
func Slugify(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: title must not be empty", apperr.ErrValidation)
	}

	lowered := cases.Lower(language.Und).String(title)
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), lowered)
	if err != nil {
		return "", fmt.Errorf("%w: normalise title %q: %v", apperr.ErrValidation, title, err)
	}
	stripped = ligatures.Replace(stripped)
	stripped = strings.ReplaceAll(stripped, "&", " and ")

	var b strings.Builder
	pending := false
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pending = false
			continue
		}
		pending = true
	}

	out := b.String()
	if out == "" {
		return "", fmt.Errorf("%w: title %q has no letters or digits", apperr.ErrValidation, title)
	}
	return out, nil
}

// Filename returns the filename for the given sequence of base. Sequence 1
// (or less) is the base file.
func Filename(base string, seq int) string {
	if seq <= 1 {
		return base + Ext
	}
	return fmt.Sprintf("%s-%02d%s", base, seq, Ext)
}

// NextFilename allocates the filename for a new read of base given the
// filenames already in its group. Gaps are never filled: the result is
// always max(existing sequences)+1.
func NextFilename(base string, existing []string) string {
	if len(existing) == 0 {
		return Filename(base, 1)
	}
	highest := 1
	for _, f := range existing {
		stem := Stem(f)
		if stem == base {
			continue
		}
		n, ok := Parse(stem)
		if !ok || n.Base != base {
			continue
		}
		if n.Sequence > highest {
			highest = n.Sequence
		}
	}
	return Filename(base, highest+1)
}

// Stem strips the directory and the .md extension from a filename.
func Stem(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), Ext)
}

// Valid reports whether filename follows the reading filename grammar.
// Anything else in a readings directory is ignored.
func Valid(filename string) bool {
	return filenameRe.MatchString(filename)
}

// IsSlug reports whether s is already in canonical slug form.
func IsSlug(s string) bool {
	return slugRe.MatchString(s)
}
