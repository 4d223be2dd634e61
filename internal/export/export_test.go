package export

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/readlog/internal/reread"
	"github.com/starford/readlog/internal/testutil"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCollect_BaseSlugAndReadCount(t *testing.T) {
	s := testutil.Store(t)
	testutil.Reading(t, s, "1984.md", "1984", "2020-01-01T00:00:00.000Z")
	testutil.Reading(t, s, "1984-03.md", "1984", "2023-01-01T00:00:00.000Z")
	testutil.Reading(t, s, "dune.md", "Dune", "")
	testutil.Reading(t, s, "1984-redux.md", "1984 Redux", "2021-01-01T00:00:00.000Z")

	res, err := Collect(s)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	type row struct {
		Slug, Base string
		Count      int
	}
	var got []row
	for _, r := range res.Readings {
		got = append(got, row{r.Slug, r.BaseSlug, r.ReadCount})
	}
	want := []row{
		{"dune", "dune", 1},
		{"1984-03", "1984", 2},
		{"1984-redux", "1984-redux", 1},
		{"1984", "1984", 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("readings mismatch (-want +got):\n%s", diff)
	}
	if len(res.Advisories) != 1 || res.Advisories[0].Kind != reread.SequenceGap {
		t.Errorf("advisories = %v", res.Advisories)
	}
}

func TestCollect_AgreesWithScanner(t *testing.T) {
	s := testutil.Store(t)
	for _, name := range []string{"a.md", "a-02.md", "a-07.md", "b-02.md", "b-03.md", "catch-22.md", "catch-22-02.md", "apollo-13.md"} {
		testutil.Reading(t, s, name, "T", "")
	}
	res, err := Collect(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res.Readings {
		files, err := reread.FindExisting(s.Provider(), r.BaseSlug)
		if err != nil {
			t.Fatal(err)
		}
		idx := -1
		for i, f := range files {
			if f == r.Slug+".md" {
				idx = i
			}
		}
		if idx < 0 {
			t.Errorf("%s: export baseSlug %q, but the scanner does not list it there", r.Slug, r.BaseSlug)
		}
		if idx+1 != r.ReadCount {
			t.Errorf("%s: export readCount %d, scanner position %d", r.Slug, r.ReadCount, idx+1)
		}
	}
}

func TestCollect_LoneSuffixedTitle(t *testing.T) {
	s := testutil.Store(t)
	testutil.Reading(t, s, "catch-22.md", "Catch-22", "2021-05-01T00:00:00.000Z")

	res, err := Collect(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Readings) != 1 {
		t.Fatalf("readings = %+v", res.Readings)
	}
	r := res.Readings[0]
	if r.BaseSlug != "catch-22" || r.ReadCount != 1 {
		t.Errorf("baseSlug = %q, readCount = %d", r.BaseSlug, r.ReadCount)
	}

	recent, err := reread.MostRecent(s, r.BaseSlug)
	if err != nil {
		t.Fatal(err)
	}
	if recent.Filename != "catch-22.md" || recent.Count != r.ReadCount {
		t.Errorf("scanner view = %+v, export view = %+v", recent, r)
	}
}

func TestCollect_IsolatesBrokenFiles(t *testing.T) {
	s := testutil.Store(t)
	testutil.Reading(t, s, "dune.md", "Dune", "2019-01-01T00:00:00.000Z")
	testutil.Raw(t, s, "dune-02.md", "---\ntitle: [unclosed\n---\n")
	testutil.Reading(t, s, "dune-03.md", "Dune", "")
	testutil.Raw(t, s, "notitle.md", "---\nauthor: Anonymous\n---\n")
	testutil.Raw(t, s, "README.txt", "ignored")

	res, err := Collect(s)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Failures) != 2 {
		t.Errorf("failures = %v", res.Failures)
	}
	counts := map[string]int{}
	for _, r := range res.Readings {
		counts[r.Slug] = r.ReadCount
	}
	if diff := cmp.Diff(map[string]int{"dune": 1, "dune-03": 3}, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_Empty(t *testing.T) {
	s := testutil.Store(t)
	res, err := Collect(s)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Readings) != 0 || len(res.Advisories) != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestRun_WritesJSONContract(t *testing.T) {
	s := testutil.Store(t)
	testutil.Raw(t, s, "1984.md", "---\ntitle: 1984\nauthor: George Orwell\nfinished: 2023-01-15T00:00:00.000Z\nfavorite: true\n---\n\nNotes.\n")
	out := filepath.Join(t.TempDir(), "public", "data", "readings.json")

	if _, err := Run(s, out, discard()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	want := []map[string]any{{
		"slug":      "1984",
		"title":     "1984",
		"author":    "George Orwell",
		"finished":  "2023-01-15T00:00:00Z",
		"favorite":  true,
		"content":   "Notes.\n",
		"baseSlug":  "1984",
		"readCount": float64(1),
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("json mismatch (-want +got):\n%s", diff)
	}
}

func TestWrite_EmptyIsArray(t *testing.T) {
	out := filepath.Join(t.TempDir(), "readings.json")
	if err := Write(out, nil); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(out)
	if string(data) != "[]\n" {
		t.Errorf("data = %q", data)
	}
}

func TestWatch_ReexportsOnChange(t *testing.T) {
	s := testutil.Store(t)
	out := filepath.Join(t.TempDir(), "readings.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	passes := make(chan int, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, s, out, discard(), func(r *Result) { passes <- len(r.Readings) })
	}()

	wait := func(want int) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case n := <-passes:
				if n == want {
					return
				}
			case <-deadline:
				t.Fatalf("no export with %d readings", want)
			}
		}
	}
	wait(0)
	testutil.Reading(t, s, "dune.md", "Dune", "")
	wait(1)

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}
