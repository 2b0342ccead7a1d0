package datetime

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/araddon/dateparse"

	"histbeat/internal/ports"
)

// Resolver implements ports.WindowResolver using free-form date parsing
type Resolver struct {
	zones map[string]string // abbreviation -> IANA zone
	local *time.Location
}

// Ensure Resolver implements WindowResolver
var _ ports.WindowResolver = (*Resolver)(nil)

// Option configures the Resolver
type Option func(*Resolver)

// WithLocation sets the zone used for inputs without a known abbreviation
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) {
		r.local = loc
	}
}

// NewResolver creates a resolver that understands the given zone abbreviations
func NewResolver(zones map[string]string, opts ...Option) *Resolver {
	r := &Resolver{
		zones: make(map[string]string, len(zones)),
		local: time.Local,
	}
	for abbrev, zone := range zones {
		r.zones[strings.ToUpper(abbrev)] = zone
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Epoch parses s and returns it as fractional epoch seconds
func (r *Resolver) Epoch(s string) (float64, error) {
	t, err := r.Parse(s)
	if err != nil {
		return 0, err
	}
	return toEpoch(t), nil
}

// Parse reads a free-form date. A trailing token naming a configured zone
// abbreviation selects that zone; otherwise the resolver's local zone applies
// unless the string carries its own offset.
func (r *Resolver) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	loc := r.local
	fields := strings.Fields(s)
	if len(fields) > 1 {
		if zone, ok := r.zones[strings.ToUpper(fields[len(fields)-1])]; ok {
			l, err := time.LoadLocation(zone)
			if err != nil {
				return time.Time{}, fmt.Errorf("unknown zone %q: %w", zone, err)
			}
			loc = l
			s = strings.Join(fields[:len(fields)-1], " ")
		}
	}

	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse %q: %w", s, err)
	}
	return t, nil
}

func toEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
