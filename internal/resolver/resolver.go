package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/therobotcowboy/inventory-manager/internal/domain"
)

// PathSeparator splits a location path into nested segments, outer to inner,
// e.g. "Van > Top Drawer".
const PathSeparator = ">"

// locationStore is the subset of store.LocationStore that Resolver requires.
type locationStore interface {
	List(ctx context.Context) ([]*domain.Location, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.Location, error)
	Create(ctx context.Context, loc *domain.Location) error
}

// Matcher decides whether a location name is a fuzzy match for a query. Both
// arguments arrive normalized. Swappable so containment can be replaced with
// token or edit-distance matching without touching callers.
type Matcher interface {
	Match(name, query string) bool
}

// ContainsMatcher matches on substring containment in either direction, e.g.
// "van 1" inside "main van 1".
type ContainsMatcher struct{}

func (ContainsMatcher) Match(name, query string) bool {
	return strings.Contains(name, query) || strings.Contains(query, name)
}

type Resolver struct {
	locations locationStore
	matcher   Matcher
	logger    *slog.Logger
}

// New creates a Resolver. A nil matcher falls back to ContainsMatcher.
func New(locations locationStore, matcher Matcher, logger *slog.Logger) *Resolver {
	if matcher == nil {
		matcher = ContainsMatcher{}
	}
	return &Resolver{locations: locations, matcher: matcher, logger: logger}
}

var (
	numberWordRe = regexp.MustCompile(`\b(one|two|three|four|five)\b`)
	numberWords  = map[string]string{"one": "1", "two": "2", "three": "3", "four": "4", "five": "5"}
	nonAlphanum  = regexp.MustCompile(`[^a-z0-9 ]`)
)

// Normalize lowercases a location name, spells small number words as digits
// ("drawer two" == "Drawer 2"), and strips punctuation for looser matching.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = numberWordRe.ReplaceAllStringFunc(s, func(w string) string { return numberWords[w] })
	s = nonAlphanum.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ResolvePath walks a ">"-separated path from the root, creating any missing
// segment as it goes, and returns the leaf location's id. The first segment
// becomes an AREA, deeper segments CONTAINERs. Resolving the same path twice
// yields the same id with no duplicate creation.
func (r *Resolver) ResolvePath(ctx context.Context, pathText string) (string, error) {
	var segments []string
	for _, seg := range strings.Split(pathText, PathSeparator) {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return "", fmt.Errorf("empty location path %q", pathText)
	}

	parentID := ""
	for depth, seg := range segments {
		children, err := r.locations.ListChildren(ctx, parentID)
		if err != nil {
			return "", fmt.Errorf("failed to list locations under %q: %w", parentID, err)
		}

		target := Normalize(seg)
		var found *domain.Location
		for _, child := range children {
			if Normalize(child.Name) == target {
				found = child
				break
			}
		}

		if found == nil {
			locType := domain.LocationTypeContainer
			if depth == 0 {
				locType = domain.LocationTypeArea
			}
			found = &domain.Location{Name: seg, Type: locType, ParentID: parentID}
			if err := r.locations.Create(ctx, found); err != nil {
				return "", fmt.Errorf("failed to create location %q: %w", seg, err)
			}
			r.logger.Info("created location", "name", seg, "type", locType, "parent_id", parentID)
		}

		parentID = found.ID
	}

	return parentID, nil
}

// ResolveLocation is a single-level fuzzy lookup with no creation: exact
// normalized match first, then the fuzzy matcher. The second return is false
// when nothing matches; the caller decides the fallback.
func (r *Resolver) ResolveLocation(ctx context.Context, name string) (string, bool, error) {
	if strings.TrimSpace(name) == "" {
		return "", false, nil
	}

	all, err := r.locations.List(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to list locations: %w", err)
	}

	query := Normalize(name)
	for _, loc := range all {
		if Normalize(loc.Name) == query {
			return loc.ID, true, nil
		}
	}
	for _, loc := range all {
		if r.matcher.Match(Normalize(loc.Name), query) {
			return loc.ID, true, nil
		}
	}

	return "", false, nil
}
