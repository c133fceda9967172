// Package supervisor recognises the supervising staff member named on a
// document's title page.
package supervisor

import (
	"regexp"
	"strings"

	"github.com/jackzampolin/doctag/internal/textnorm"
)

// Unknown is reported when no known surname appears.
const Unknown = "неизвестно"

// Suppressed names a supervisor who is often mentioned alongside the real one
// (for example as head of department). When other surnames also match, this
// one is dropped from the label.
const Suppressed = "воробьева"

// DefaultSurnames is the known supervisor list, in reporting order.
var DefaultSurnames = []string{
	"аврискин",
	"воробьева",
	"глазкова",
	"захарова",
	"мельникова",
	"павлова",
	"перевалова",
	"плотоненко",
	"ступников",
	"шенгелия",
	"ялдыгин",
	"свиязов",
	"стоянов",
	"коцур",
	"ниссенбаум",
}

type surname struct {
	name    string
	pattern *regexp.Regexp
}

// Detector matches text against a fixed surname list. It is safe for
// concurrent use.
type Detector struct {
	surnames   []surname
	suppressed string
	unknown    string
}

// Option configures a Detector.
type Option func(*Detector)

// WithSuppressed overrides the surname dropped in favour of co-occurring ones.
// An empty name disables suppression.
func WithSuppressed(name string) Option {
	return func(d *Detector) { d.suppressed = textnorm.Fold(name) }
}

// WithUnknown overrides the label reported when nothing matches.
func WithUnknown(label string) Option {
	return func(d *Detector) { d.unknown = label }
}

// New builds a detector for names. Names are folded; duplicates after
// folding are ignored. A surname also matches forms that extend it with
// Cyrillic letters ("ступников", "ступникова", "ступниковым").
func New(names []string, opts ...Option) *Detector {
	d := &Detector{suppressed: Suppressed, unknown: Unknown}
	for _, opt := range opts {
		opt(d)
	}

	seen := make(map[string]bool)
	for _, n := range names {
		base := textnorm.Fold(n)
		if base == "" || seen[base] {
			continue
		}
		seen[base] = true
		d.surnames = append(d.surnames, surname{
			name:    base,
			pattern: regexp.MustCompile(textnorm.WordStart + regexp.QuoteMeta(base) + `[а-я]*` + textnorm.WordEnd),
		})
	}
	return d
}

// Default returns a detector over DefaultSurnames.
func Default() *Detector {
	return New(DefaultSurnames)
}

// Matches returns every known surname found in text, in list order.
func (d *Detector) Matches(text string) []string {
	norm := textnorm.Fold(text)
	var found []string
	for _, s := range d.surnames {
		if s.pattern.MatchString(norm) {
			found = append(found, s.name)
		}
	}
	return found
}

// Detect returns the supervisor label for text: a single surname, several
// surnames joined with "/", or the unknown label.
func (d *Detector) Detect(text string) string {
	found := d.Matches(text)
	switch {
	case len(found) == 0:
		return d.unknown
	case len(found) == 1:
		return found[0]
	}

	if d.suppressed != "" {
		others := make([]string, 0, len(found))
		for _, s := range found {
			if s != d.suppressed {
				others = append(others, s)
			}
		}
		if len(others) > 0 {
			found = others
		}
	}
	return strings.Join(found, "/")
}
