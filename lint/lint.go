// Package lint checks the script directory against the manifest for
// consistency problems that are worth reporting but never block a run.
package lint

import (
	"fmt"
	"regexp"
	"strings"

	updatedb "github.com/theMK2k/update-db"
	"github.com/theMK2k/update-db/manifest"
)

// tableScript matches names following the "<schema>.<object> TABLE"
// naming convention, capturing the qualified object name.
var tableScript = regexp.MustCompile(`^(\w+\.\w+) TABLE`)

// Check inspects the script directory listing against the manifest and
// returns one warning per finding. Two independent checks run:
//
//   - a script listed in neither updates nor ignore is orphaned and
//     will never be applied;
//   - a "<schema>.<object> TABLE..." script without a sibling named
//     "<schema>.<object> RLS..." is missing its row level security
//     setup.
//
// The naming convention is a heuristic; deviant names escape the
// second check. The ignore list has no effect on it.
func Check(available []string, m *manifest.Manifest) []updatedb.Warning {
	var warnings []updatedb.Warning

	updates := make(map[string]struct{}, len(m.Updates))
	for _, name := range m.Updates {
		updates[name] = struct{}{}
	}

	for _, name := range available {
		if _, ok := updates[name]; ok {
			continue
		}
		if m.Ignored(name) {
			continue
		}
		warnings = append(warnings, updatedb.Warning{
			Script: name,
			Reason: "not referenced by the manifest",
		})
	}

	for _, name := range available {
		match := tableScript.FindStringSubmatch(name)
		if match == nil {
			continue
		}
		companion := match[1] + " RLS"
		if hasPrefixAny(available, companion) {
			continue
		}
		warnings = append(warnings, updatedb.Warning{
			Script: name,
			Reason: fmt.Sprintf("no companion script starting with %q", companion),
		})
	}

	return warnings
}

func hasPrefixAny(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}
