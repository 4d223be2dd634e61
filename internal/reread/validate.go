package reread

import (
	"fmt"

	"github.com/starford/readlog/internal/slug"
)

// LargeGroup is the group size above which a group is flagged for review.
const LargeGroup = 10

// AdvisoryKind classifies a sequence finding.
type AdvisoryKind string

const (
	MissingBase       AdvisoryKind = "missing-base"
	SequenceGap       AdvisoryKind = "sequence-gap"
	DuplicateSequence AdvisoryKind = "duplicate-sequence"
	LargeCount        AdvisoryKind = "large-group"
)

// Advisory is a non-fatal finding about a reread group. Expected and Found
// are sequence numbers where they apply.
type Advisory struct {
	Kind     AdvisoryKind `json:"kind"`
	BaseSlug string       `json:"baseSlug"`
	Message  string       `json:"message"`
	Expected int          `json:"expected,omitempty"`
	Found    int          `json:"found,omitempty"`
}

func (a Advisory) String() string {
	return fmt.Sprintf("%s: %s", a.BaseSlug, a.Message)
}

// Validate inspects every group with more than one file. It never changes
// the map; findings come back sorted by base slug.
func Validate(m Map) []Advisory {
	var out []Advisory
	for _, base := range m.Bases() {
		files := m[base]
		if len(files) <= 1 {
			continue
		}

		seqs := make([]int, len(files))
		for i, f := range files {
			seqs[i] = sequenceOf(base, f)
		}

		if slug.Stem(files[0]) != base {
			out = append(out, Advisory{
				Kind:     MissingBase,
				BaseSlug: base,
				Message:  fmt.Sprintf("missing base file %s, group starts at %s", slug.Filename(base, 1), files[0]),
				Expected: 1,
				Found:    seqs[0],
			})
		}
		for i := 1; i < len(seqs); i++ {
			prev, cur := seqs[i-1], seqs[i]
			switch {
			case cur == prev:
				out = append(out, Advisory{
					Kind:     DuplicateSequence,
					BaseSlug: base,
					Message:  fmt.Sprintf("%s and %s share sequence %d", files[i-1], files[i], cur),
					Expected: prev + 1,
					Found:    cur,
				})
			case cur != prev+1:
				out = append(out, Advisory{
					Kind:     SequenceGap,
					BaseSlug: base,
					Message:  fmt.Sprintf("sequence gap: expected -%02d, found %s", prev+1, files[i]),
					Expected: prev + 1,
					Found:    cur,
				})
			}
		}
		if len(files) > LargeGroup {
			out = append(out, Advisory{
				Kind:     LargeCount,
				BaseSlug: base,
				Message:  fmt.Sprintf("%d readings in one group, verify this is correct", len(files)),
				Found:    len(files),
			})
		}
	}
	return out
}

func sequenceOf(base, filename string) int {
	stem := slug.Stem(filename)
	if stem == base {
		return 1
	}
	if id, ok := slug.Parse(stem); ok {
		return id.Sequence
	}
	return 1
}
