package versionsolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// pep440Strategy implements PEP 440 (Python) version semantics (spec.md
// §4). No dependency in the retrieval pack parses PEP 440 version
// strings, so this is a hand-rolled comparator over the release-segment
// plus pre/post/dev-release subset of the grammar that vx's Python
// runtimes actually need — justified in DESIGN.md as a stdlib-only
// component.
type pep440Strategy struct{}

func init() {
	register("python", pep440Strategy{})
}

func (pep440Strategy) Name() string { return "pep440" }

var pep440RE = regexp.MustCompile(`^(\d+(?:\.\d+)*)((?:a|b|rc)\d+)?(?:\.post(\d+))?(?:\.dev(\d+))?$`)

type pep440Version struct {
	release []int
	pre     string // "", "a", "b", "rc"
	preNum  int
	post    int
	hasPost bool
	dev     int
	hasDev  bool
}

func parsePEP440(v string) (pep440Version, error) {
	m := pep440RE.FindStringSubmatch(strings.TrimSpace(v))
	if m == nil {
		return pep440Version{}, fmt.Errorf("pep440: invalid version %q", v)
	}

	var out pep440Version
	for _, seg := range strings.Split(m[1], ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return pep440Version{}, fmt.Errorf("pep440: invalid release segment %q in %q", seg, v)
		}
		out.release = append(out.release, n)
	}

	if m[2] != "" {
		idx := strings.IndexAny(m[2], "0123456789")
		out.pre = m[2][:idx]
		n, _ := strconv.Atoi(m[2][idx:])
		out.preNum = n
	}
	if m[3] != "" {
		out.hasPost = true
		out.post, _ = strconv.Atoi(m[3])
	}
	if m[4] != "" {
		out.hasDev = true
		out.dev, _ = strconv.Atoi(m[4])
	}
	return out, nil
}

func preRank(pre string) int {
	switch pre {
	case "a":
		return 0
	case "b":
		return 1
	case "rc":
		return 2
	default:
		return 3 // final release outranks any pre-release
	}
}

func comparePEP440(a, b pep440Version) int {
	for i := 0; i < max(len(a.release), len(b.release)); i++ {
		var ra, rb int
		if i < len(a.release) {
			ra = a.release[i]
		}
		if i < len(b.release) {
			rb = b.release[i]
		}
		if ra != rb {
			return cmpInt(ra, rb)
		}
	}

	if a.hasDev != b.hasDev {
		// A dev release of the same version sorts before the release.
		if a.hasDev {
			return -1
		}
		return 1
	}

	ra, rb := preRank(a.pre), preRank(b.pre)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	if ra != 3 && a.preNum != b.preNum {
		return cmpInt(a.preNum, b.preNum)
	}

	if a.hasPost != b.hasPost {
		if a.hasPost {
			return 1
		}
		return -1
	}
	if a.post != b.post {
		return cmpInt(a.post, b.post)
	}
	if a.hasDev && b.hasDev && a.dev != b.dev {
		return cmpInt(a.dev, b.dev)
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (pep440Strategy) Compare(a, b string) (int, error) {
	va, err := parsePEP440(a)
	if err != nil {
		return 0, err
	}
	vb, err := parsePEP440(b)
	if err != nil {
		return 0, err
	}
	return comparePEP440(va, vb), nil
}

func (s pep440Strategy) Satisfies(version string, req Request) (bool, error) {
	v, err := parsePEP440(version)
	if err != nil {
		return false, err
	}

	switch req.Kind {
	case Latest, LatestPrerelease:
		return true, nil
	case Exact:
		w, err := parsePEP440(req.Parts[0])
		if err != nil {
			return false, err
		}
		return comparePEP440(v, w) == 0, nil
	case Partial, Wildcard:
		for i, part := range req.Parts {
			n, err := strconv.Atoi(part)
			if err != nil {
				return false, fmt.Errorf("pep440: invalid release segment %q", part)
			}
			if i >= len(v.release) || v.release[i] != n {
				return false, nil
			}
		}
		return true, nil
	case Caret, Tilde:
		base, err := parsePEP440(req.Parts[0])
		if err != nil {
			return false, err
		}
		if len(base.release) == 0 || len(v.release) == 0 || v.release[0] != base.release[0] {
			return false, nil
		}
		return comparePEP440(v, base) >= 0, nil
	case Range:
		return satisfiesRangeClauses(req.Parts, func(op, val string) (bool, error) {
			w, err := parsePEP440(val)
			if err != nil {
				return false, err
			}
			return evalOp(op, comparePEP440(v, w)), nil
		})
	default:
		return false, fmt.Errorf("pep440: unsupported request kind %s", req.Kind)
	}
}

func (pep440Strategy) IsPrerelease(version string) bool {
	v, err := parsePEP440(version)
	if err != nil {
		return false
	}
	return v.pre != "" || v.hasDev
}
