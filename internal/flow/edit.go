package flow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/models"
	"github.com/starford/readlog/internal/record"
	"github.com/starford/readlog/internal/reread"
	"github.com/starford/readlog/internal/slug"
)

// editStep changes one aspect of a record. It returns the new frontmatter
// and a local cover source still to be processed, if any.
type editStep struct {
	label string
	apply func(f *Flow, name string, fm map[string]any) (map[string]any, string, error)
}

var editSteps = []editStep{
	{"title", editTitle},
	{"author", editAuthor},
	{"finished", editFinished},
	{"audiobook", editToggle(record.KeyAudiobook, "Audiobook?")},
	{"favorite", editToggle(record.KeyFavorite, "Favorite?")},
	{"cover image", editCover},
	{"delete", nil},
	{"cancel", nil},
}

// Edit changes a single field of an existing reading, or deletes the file.
// Titles can change freely: a file is never renamed or renumbered.
func (f *Flow) Edit(ctx context.Context, name string) (res *Result, err error) {
	defer func() {
		if err != nil {
			f.enter(Aborted)
		}
	}()

	if !slug.Valid(name) {
		return nil, fmt.Errorf("flow: %w: %q is not a reading filename", apperr.ErrValidation, name)
	}
	doc, err := f.store.Read(name)
	if err != nil {
		return nil, err
	}
	current, err := record.Decode(doc.Frontmatter)
	if err != nil {
		return nil, fmt.Errorf("flow: %s: %w", name, err)
	}
	f.prompt.Say("%s: %q by %s", name, current.Title, current.Author)

	labels := make([]string, len(editSteps))
	for i, s := range editSteps {
		labels[i] = s.label
	}
	i, err := f.prompt.Choose("What do you want to change?", labels)
	if err != nil {
		return nil, err
	}

	switch editSteps[i].label {
	case "cancel":
		return nil, apperr.ErrCancelled
	case "delete":
		return f.delete(name, current)
	}

	f.enter(CollectingMetadata)
	fm, coverSrc, err := editSteps[i].apply(f, name, doc.Frontmatter)
	if err != nil {
		return nil, err
	}
	reading, err := record.Decode(fm)
	if err != nil {
		return nil, err
	}

	f.enter(Previewing)
	if err := f.preview(name, fm, doc.Body); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.persist(name, fm, doc.Body, doc, coverSrc); err != nil {
		return nil, err
	}
	f.enter(Persisted)

	count, err := f.readCount(name)
	if err != nil {
		return nil, err
	}
	f.logger.Info("reading updated", slog.String("file", name), slog.String("field", editSteps[i].label))
	return &Result{Filename: name, Action: ActionUpdated, Reading: reading, ReadCount: count}, nil
}

// Delete removes a reading after confirmation. Other files of its group
// keep their names, so a gap may be left behind; the validator reports it.
func (f *Flow) Delete(ctx context.Context, name string) (res *Result, err error) {
	defer func() {
		if err != nil {
			f.enter(Aborted)
		}
	}()
	if !slug.Valid(name) {
		return nil, fmt.Errorf("flow: %w: %q is not a reading filename", apperr.ErrValidation, name)
	}
	doc, err := f.store.Read(name)
	if err != nil {
		return nil, err
	}
	current, err := record.Decode(doc.Frontmatter)
	if err != nil {
		return nil, fmt.Errorf("flow: %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.prompt.Say("%s: %q by %s", name, current.Title, current.Author)
	return f.delete(name, current)
}

func (f *Flow) delete(name string, current models.Reading) (*Result, error) {
	ok, err := f.prompt.Confirm(fmt.Sprintf("Delete %s? This cannot be undone", name), false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ErrCancelled
	}
	if err := f.store.Delete(name); err != nil {
		return nil, err
	}
	f.enter(Persisted)
	f.logger.Info("reading deleted", slog.String("file", name))
	return &Result{Filename: name, Action: ActionDeleted, Reading: current}, nil
}

func (f *Flow) readCount(name string) (int, error) {
	names, err := f.store.Provider().List()
	if err != nil {
		return 0, err
	}
	return reread.ReadCount(name, reread.BuildMap(names)), nil
}

func editTitle(f *Flow, _ string, fm map[string]any) (map[string]any, string, error) {
	current, _ := record.Decode(fm)
	title, err := f.prompt.Line("Title", current.Title)
	if err != nil {
		return nil, "", err
	}
	if err := validation.Validate(title, validation.Required, validation.Length(1, 300)); err != nil {
		return nil, "", fmt.Errorf("flow: %w: title %v", apperr.ErrValidation, err)
	}
	return record.UpdateField(fm, record.KeyTitle, title), "", nil
}

func editAuthor(f *Flow, _ string, fm map[string]any) (map[string]any, string, error) {
	current, _ := record.Decode(fm)
	author, err := f.prompt.Line("Author", current.Author)
	if err != nil {
		return nil, "", err
	}
	if err := validation.Validate(author, validation.Required, validation.Length(1, 300)); err != nil {
		return nil, "", fmt.Errorf("flow: %w: author %v", apperr.ErrValidation, err)
	}
	return record.UpdateField(fm, record.KeyAuthor, author), "", nil
}

func editFinished(f *Flow, _ string, fm map[string]any) (map[string]any, string, error) {
	current, _ := record.Decode(fm)
	done, err := f.prompt.Confirm("Have you finished it?", !current.InProgress())
	if err != nil {
		return nil, "", err
	}
	if !done {
		return record.UpdateField(fm, record.KeyFinished, nil), "", nil
	}
	def := f.now().Format(time.DateOnly)
	if current.Finished != nil {
		def = current.Finished.Format(time.DateOnly)
	}
	answer, err := f.prompt.Line("Finish date (YYYY-MM-DD)", def)
	if err != nil {
		return nil, "", err
	}
	day, err := ParseDate(answer)
	if err != nil {
		return nil, "", err
	}
	return record.UpdateField(fm, record.KeyFinished, record.FormatFinished(day)), "", nil
}

func editToggle(key, question string) func(*Flow, string, map[string]any) (map[string]any, string, error) {
	return func(f *Flow, _ string, fm map[string]any) (map[string]any, string, error) {
		current, _ := fm[key].(bool)
		on, err := f.prompt.Confirm(question, current)
		if err != nil {
			return nil, "", err
		}
		return record.UpdateField(fm, key, trueOrNil(on)), "", nil
	}
}

func editCover(f *Flow, name string, fm map[string]any) (map[string]any, string, error) {
	var md metadata
	if err := f.collectCover(&md, slug.Stem(name)); err != nil {
		return nil, "", err
	}
	if md.cover == "" {
		return fm, "", nil
	}
	return record.UpdateField(fm, record.KeyCoverImage, md.cover), md.coverSrc, nil
}
