// Package catalog serves read-only views of the reading directory. Every
// call rescans the files, so the views can never drift from disk.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/readlog/internal/apperr"
	"github.com/starford/readlog/internal/export"
	"github.com/starford/readlog/internal/models"
	"github.com/starford/readlog/internal/record"
	"github.com/starford/readlog/internal/reread"
)

// Service answers queries over a record store.
type Service struct {
	store *record.Store
}

// NewService creates a new catalog service.
func NewService(store *record.Store) *Service {
	return &Service{store: store}
}

// Listing is a full scan: the published readings plus the advisories and
// exclusions found along the way.
type Listing struct {
	Readings   []models.PublishedReading `json:"readings"`
	Advisories []reread.Advisory         `json:"advisories"`
	Excluded   []string                  `json:"excluded"`
}

// List returns all readings in publication order. A non-empty base keeps
// only that group.
func (s *Service) List(ctx context.Context, base string) (*Listing, error) {
	res, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	out := &Listing{
		Readings:   []models.PublishedReading{},
		Advisories: []reread.Advisory{},
		Excluded:   []string{},
	}
	for _, r := range res.Readings {
		if base == "" || r.BaseSlug == base {
			out.Readings = append(out.Readings, r)
		}
	}
	for _, a := range res.Advisories {
		if base == "" || a.BaseSlug == base {
			out.Advisories = append(out.Advisories, a)
		}
	}
	for _, f := range res.Failures {
		out.Excluded = append(out.Excluded, f.Filename)
	}
	return out, nil
}

// Get returns the reading whose filename stem is slug.
func (s *Service) Get(ctx context.Context, slug string) (*models.PublishedReading, error) {
	res, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	for i := range res.Readings {
		if res.Readings[i].Slug == slug {
			return &res.Readings[i], nil
		}
	}
	return nil, fmt.Errorf("catalog: %w: %s", apperr.ErrNotFound, slug)
}

// History returns every read of the group slug belongs to, first read
// first. slug may name any member of the group.
func (s *Service) History(ctx context.Context, slug string) ([]models.PublishedReading, error) {
	r, err := s.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	res, err := s.collect(ctx)
	if err != nil {
		return nil, err
	}
	var group []models.PublishedReading
	for _, e := range res.Readings {
		if e.BaseSlug == r.BaseSlug {
			group = append(group, e)
		}
	}
	byCount(group)
	return group, nil
}

func (s *Service) collect(ctx context.Context) (*export.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return export.Collect(s.store)
}

func byCount(rs []models.PublishedReading) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].ReadCount < rs[j].ReadCount })
}
