package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/checksum"
	"github.com/starford/readlog/internal/coverimage"
	"github.com/starford/readlog/internal/models"
	"github.com/starford/readlog/internal/parser"
	"github.com/starford/readlog/internal/prompt"
	"github.com/starford/readlog/internal/record"
	"github.com/starford/readlog/internal/reread"
	"github.com/starford/readlog/internal/slug"
)

// Result describes a completed flow.
type Result struct {
	Filename  string
	Action    Action
	Reading   models.Reading
	ReadCount int
}

// Flow drives one operator conversation. It is not safe for concurrent use.
type Flow struct {
	store  *record.Store
	covers *coverimage.Pipeline
	prompt prompt.Prompter
	logger *slog.Logger
	now    func() time.Time
	state  State
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the logger used for flow diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Flow) {
		f.logger = l
	}
}

// WithClock overrides the clock used for the default finish date.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// New creates a flow over the given store and cover pipeline.
func New(store *record.Store, covers *coverimage.Pipeline, p prompt.Prompter, opts ...Option) *Flow {
	f := &Flow{
		store:  store,
		covers: covers,
		prompt: p,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the step the flow is in (or ended in).
func (f *Flow) State() State {
	return f.state
}

func (f *Flow) enter(s State) {
	f.state = s
	f.logger.Debug("flow: state", slog.String("state", s.String()))
}

// metadata is everything collected from the operator after the basics.
type metadata struct {
	finished  *string
	audiobook bool
	favorite  bool
	cover     string // site path; "" keeps whatever is there
	coverSrc  string // local file still to be processed
}

// Add runs the add-a-reading conversation. Nothing is written until the
// operator confirms the preview; any failure before that leaves the content
// directory untouched.
func (f *Flow) Add(ctx context.Context) (res *Result, err error) {
	defer func() {
		if err != nil {
			f.enter(Aborted)
		}
	}()

	f.enter(CollectingBasics)
	title, author, base, err := f.collectBasics()
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.enter(CheckingExisting)
	existing, err := reread.FindExisting(f.store.Provider(), base)
	if err != nil {
		return nil, err
	}

	p := &plan{base: base, existing: existing}
	var prior *record.Document
	var priorReading models.Reading
	if len(existing) == 0 {
		f.enter(Creating)
		p.target = slug.Filename(base, 1)
		p.action = ActionCreated
	} else {
		f.enter(Deciding)
		f.describeExisting(base, existing)
		i, err := f.prompt.Choose("Record a reread, update the latest reading, or cancel?", decisionLabels())
		if err != nil {
			return nil, err
		}
		if err := Decisions[i].resolve(p); err != nil {
			return nil, err
		}
		if p.action == ActionUpdated {
			if prior, err = f.store.Read(p.target); err != nil {
				return nil, err
			}
			if priorReading, err = record.Decode(prior.Frontmatter); err != nil {
				return nil, fmt.Errorf("flow: %s: %w", p.target, err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.enter(CollectingMetadata)
	md, err := f.collectMetadata(priorReading)
	if err != nil {
		return nil, err
	}

	f.enter(CollectingImage)
	if err := f.collectCover(&md, slug.Stem(p.target)); err != nil {
		return nil, err
	}

	var fm map[string]any
	body := ""
	if prior == nil {
		fm = record.New(title, author, md.finished, record.Options{
			CoverImage: md.cover,
			Audiobook:  md.audiobook,
			Favorite:   md.favorite,
		})
	} else {
		fm = applyMetadata(prior.Frontmatter, title, author, md)
		body = prior.Body
	}

	f.enter(Previewing)
	if err := f.preview(p.target, fm, body); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.persist(p.target, fm, body, prior, md.coverSrc); err != nil {
		return nil, err
	}
	f.enter(Persisted)

	reading, err := record.Decode(fm)
	if err != nil {
		return nil, err
	}
	count := len(existing)
	if p.action != ActionUpdated {
		count++
	}
	f.logger.Info("reading saved",
		slog.String("file", p.target),
		slog.String("action", string(p.action)),
		slog.Int("read_count", count))
	return &Result{Filename: p.target, Action: p.action, Reading: reading, ReadCount: count}, nil
}

func decisionLabels() []string {
	labels := make([]string, len(Decisions))
	for i, d := range Decisions {
		labels[i] = d.String()
	}
	return labels
}

func (f *Flow) collectBasics() (title, author, base string, err error) {
	if title, err = f.prompt.Line("Title", ""); err != nil {
		return "", "", "", err
	}
	if err := validation.Validate(title, validation.Required, validation.Length(1, 300)); err != nil {
		return "", "", "", fmt.Errorf("flow: %w: title %v", apperr.ErrValidation, err)
	}
	if base, err = slug.Slugify(title); err != nil {
		return "", "", "", err
	}
	if author, err = f.prompt.Line("Author", ""); err != nil {
		return "", "", "", err
	}
	if err := validation.Validate(author, validation.Required, validation.Length(1, 300)); err != nil {
		return "", "", "", fmt.Errorf("flow: %w: author %v", apperr.ErrValidation, err)
	}
	return title, author, base, nil
}

func (f *Flow) describeExisting(base string, existing []string) {
	f.prompt.Say("Found %d existing reading(s) of %q: %s", len(existing), base, strings.Join(existing, ", "))
	recent, err := reread.MostRecent(f.store, base)
	if err != nil {
		f.logger.Warn("flow: cannot read latest reading", slog.String("base", base), slog.String("error", err.Error()))
		return
	}
	when := "still in progress"
	if recent.Date != nil {
		when = "finished " + recent.Date.Format(time.DateOnly)
	}
	f.prompt.Say("Most recent: %s (%s)", recent.Filename, when)
}

// collectMetadata asks, in order: finished?, finish date, audiobook?,
// favorite?. Defaults come from prior when updating.
func (f *Flow) collectMetadata(prior models.Reading) (metadata, error) {
	var md metadata

	done, err := f.prompt.Confirm("Have you finished it?", prior.Title == "" || !prior.InProgress())
	if err != nil {
		return md, err
	}
	if done {
		def := f.now().Format(time.DateOnly)
		if prior.Finished != nil {
			def = prior.Finished.Format(time.DateOnly)
		}
		answer, err := f.prompt.Line("Finish date (YYYY-MM-DD)", def)
		if err != nil {
			return md, err
		}
		day, err := ParseDate(answer)
		if err != nil {
			return md, err
		}
		iso := record.FormatFinished(day)
		md.finished = &iso
	}

	if md.audiobook, err = f.prompt.Confirm("Audiobook?", prior.Audiobook); err != nil {
		return md, err
	}
	if md.favorite, err = f.prompt.Confirm("Favorite?", prior.Favorite); err != nil {
		return md, err
	}
	return md, nil
}

// ParseDate accepts exactly YYYY-MM-DD and returns midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if err := validation.Validate(s, validation.Required, validation.Date(time.DateOnly)); err != nil {
		return time.Time{}, fmt.Errorf("flow: %w: date %q must be YYYY-MM-DD", apperr.ErrValidation, s)
	}
	return time.ParseInLocation(time.DateOnly, s, time.UTC)
}

const (
	coverURL = iota
	coverFile
	coverSkip
)

// collectCover asks for a cover source. A local file is validated now and
// transcoded only after the preview is confirmed.
func (f *Flow) collectCover(md *metadata, stem string) error {
	i, err := f.prompt.Choose("Cover image", []string{"url", "local file", "skip"})
	if err != nil {
		return err
	}
	switch i {
	case coverURL:
		u, err := f.prompt.Line("Image URL", "")
		if err != nil {
			return err
		}
		if err := validation.Validate(u, validation.Required, is.URL, validation.By(httpURL)); err != nil {
			return fmt.Errorf("flow: %w: image URL %v", apperr.ErrValidation, err)
		}
		md.cover = u
	case coverFile:
		src, err := f.prompt.Line("Path to image", "")
		if err != nil {
			return err
		}
		if err := validation.Validate(src, validation.Required); err != nil {
			return fmt.Errorf("flow: %w: image path %v", apperr.ErrValidation, err)
		}
		if err := f.covers.Validate(src); err != nil {
			return err
		}
		md.cover = f.covers.WebPath(stem)
		md.coverSrc = src
	case coverSkip:
	}
	return nil
}

func httpURL(v any) error {
	s, _ := v.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an absolute http(s) URL")
	}
	return nil
}

// applyMetadata overwrites the collected fields on an existing record and
// keeps everything else (unknown keys, body).
func applyMetadata(fm map[string]any, title, author string, md metadata) map[string]any {
	out := record.UpdateField(fm, record.KeyTitle, title)
	out = record.UpdateField(out, record.KeyAuthor, author)
	if md.finished != nil {
		out = record.UpdateField(out, record.KeyFinished, *md.finished)
	} else {
		out = record.UpdateField(out, record.KeyFinished, nil)
	}
	out = record.UpdateField(out, record.KeyAudiobook, trueOrNil(md.audiobook))
	out = record.UpdateField(out, record.KeyFavorite, trueOrNil(md.favorite))
	if md.cover != "" {
		out = record.UpdateField(out, record.KeyCoverImage, md.cover)
	}
	return out
}

func trueOrNil(b bool) any {
	if b {
		return true
	}
	return nil
}

func (f *Flow) preview(target string, fm map[string]any, body string) error {
	data, err := parser.Render(fm, body)
	if err != nil {
		return err
	}
	f.prompt.Say("\n%s\n%s", target, strings.TrimRight(string(data), "\n"))
	ok, err := f.prompt.Confirm("Save "+target+"?", true)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrCancelled
	}
	return nil
}

// persist processes a pending cover, then writes the record. New files are
// never overwritten; updates are refused if the file changed since it was
// read.
func (f *Flow) persist(target string, fm map[string]any, body string, prior *record.Document, coverSrc string) error {
	if prior == nil {
		exists, err := f.store.Exists(target)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("flow: %s: %w", target, apperr.ErrAlreadyExists)
		}
	} else {
		data, err := f.store.Provider().Read(target)
		if err != nil {
			return err
		}
		if !checksum.Matches(data, prior.Checksum) {
			return fmt.Errorf("flow: %s changed on disk: %w", target, apperr.ErrConflict)
		}
	}

	if coverSrc != "" {
		if _, err := f.covers.Process(coverSrc, slug.Stem(target)); err != nil {
			return err
		}
	}
	return f.store.Write(target, fm, body)
}
