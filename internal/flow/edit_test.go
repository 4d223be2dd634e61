package flow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/prompt"
	"github.com/starford/readlog/internal/testutil"
)

func (e *env) edit(t *testing.T, name string, answers ...string) (*Result, error) {
	t.Helper()
	f := e.flow(prompt.NewScript(strings.NewReader(strings.Join(answers, "\n")+"\n"), &bytes.Buffer{}))
	return f.Edit(context.Background(), name)
}

func TestEdit_Favorite(t *testing.T) {
	e := newEnv(t)
	testutil.Reading(t, e.store, "1984.md", "1984", "2023-01-15T00:00:00.000Z")
	testutil.Reading(t, e.store, "1984-02.md", "1984", "")

	res, err := e.edit(t, "1984-02.md", "favorite", "y", "y")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if !res.Reading.Favorite || res.ReadCount != 2 {
		t.Errorf("result = %+v", res)
	}
	doc, _ := e.store.Read("1984-02.md")
	if doc.Frontmatter["favorite"] != true {
		t.Errorf("frontmatter = %v", doc.Frontmatter)
	}

	if _, err := e.edit(t, "1984-02.md", "favorite", "n", "y"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	doc, _ = e.store.Read("1984-02.md")
	if _, ok := doc.Frontmatter["favorite"]; ok {
		t.Errorf("favorite should be absent when false: %v", doc.Frontmatter)
	}
}

func TestEdit_Finished(t *testing.T) {
	e := newEnv(t)
	testutil.Reading(t, e.store, "dune.md", "Dune", "")
	res, err := e.edit(t, "dune.md", "finished", "y", "2024-12-24", "y")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.Reading.Finished == nil || res.Reading.Finished.Format("2006-01-02") != "2024-12-24" {
		t.Errorf("reading = %+v", res.Reading)
	}
}

func TestEdit_TitleDoesNotRename(t *testing.T) {
	e := newEnv(t)
	testutil.Reading(t, e.store, "dune.md", "Dune", "")
	if _, err := e.edit(t, "dune.md", "title", "Dune (40th anniversary)", "y"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if files := e.files(t); len(files) != 1 || files[0] != "dune.md" {
		t.Errorf("files = %v", files)
	}
}

func TestEdit_Delete(t *testing.T) {
	e := newEnv(t)
	testutil.Reading(t, e.store, "dune.md", "Dune", "")

	if _, err := e.edit(t, "dune.md", "delete", "n"); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("declined delete err = %v", err)
	}
	if len(e.files(t)) != 1 {
		t.Fatal("declined delete removed the file")
	}

	res, err := e.edit(t, "dune.md", "delete", "yes")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if res.Action != ActionDeleted || len(e.files(t)) != 0 {
		t.Errorf("result = %+v, files = %v", res, e.files(t))
	}
}

func TestEdit_NotFound(t *testing.T) {
	e := newEnv(t)
	if _, err := e.edit(t, "missing.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if _, err := e.edit(t, "../etc/passwd"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v", err)
	}
}

func TestEdit_Cancel(t *testing.T) {
	e := newEnv(t)
	testutil.Reading(t, e.store, "dune.md", "Dune", "")
	if _, err := e.edit(t, "dune.md", "cancel"); !errors.Is(err, apperr.ErrCancelled) {
		t.Errorf("err = %v", err)
	}
}

func TestDelete_LeavesGroupIntact(t *testing.T) {
	e := newEnv(t)
	testutil.Reading(t, e.store, "dune.md", "Dune", "2020-01-01T00:00:00.000Z")
	testutil.Reading(t, e.store, "dune-02.md", "Dune", "2022-01-01T00:00:00.000Z")
	testutil.Reading(t, e.store, "dune-03.md", "Dune", "")

	f := e.flow(prompt.NewScript(strings.NewReader("y\n"), &bytes.Buffer{}))
	res, err := f.Delete(context.Background(), "dune-02.md")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.Action != ActionDeleted || f.State() != Persisted {
		t.Errorf("result = %+v, state = %v", res, f.State())
	}
	files := e.files(t)
	if len(files) != 2 || files[0] != "dune-03.md" || files[1] != "dune.md" {
		t.Errorf("files = %v", files)
	}
}
