package versionsolver

import (
	"fmt"
	"regexp"
	"time"
)

// dateStrategy implements date-versioned runtimes (spec.md §4: "date
// versions (YYYYMMDD)"). No dependency in the retrieval pack parses date
// versions as a comparable scheme — hand-rolled and justified in
// DESIGN.md as a stdlib-only component; the standard library's time
// package supplies the only real work (format validation).
type dateStrategy struct{}

func init() {
	register("date", dateStrategy{})
}

func (dateStrategy) Name() string { return "date" }

var datePattern = regexp.MustCompile(`^\d{8}$`)

func parseDate(v string) (time.Time, error) {
	if !datePattern.MatchString(v) {
		return time.Time{}, fmt.Errorf("date: invalid version %q, expected YYYYMMDD", v)
	}
	return time.Parse("20060102", v)
}

func (dateStrategy) Compare(a, b string) (int, error) {
	ta, err := parseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := parseDate(b)
	if err != nil {
		return 0, err
	}
	switch {
	case ta.Before(tb):
		return -1, nil
	case ta.After(tb):
		return 1, nil
	default:
		return 0, nil
	}
}

func (s dateStrategy) Satisfies(version string, req Request) (bool, error) {
	t, err := parseDate(version)
	if err != nil {
		return false, err
	}

	switch req.Kind {
	case Latest, LatestPrerelease:
		return true, nil
	case Exact:
		w, err := parseDate(req.Parts[0])
		if err != nil {
			return false, err
		}
		return t.Equal(w), nil
	case Range:
		return satisfiesRangeClauses(req.Parts, func(op, val string) (bool, error) {
			w, err := parseDate(val)
			if err != nil {
				return false, err
			}
			var cmp int
			switch {
			case t.Before(w):
				cmp = -1
			case t.After(w):
				cmp = 1
			}
			return evalOp(op, cmp), nil
		})
	default:
		return false, fmt.Errorf("date: unsupported request kind %s for date versions", req.Kind)
	}
}

func (dateStrategy) IsPrerelease(string) bool { return false }
