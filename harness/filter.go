package harness

import (
	"regexp"

	"github.com/clbarnes/ome-zarr-conformance/model"
)

// Filter selects the cases whose test IDs pass the include and exclude
// patterns. With no include patterns every case is included; exclude
// patterns are applied afterwards. Order is preserved.
func Filter(cases []model.TestCase, includes, excludes []*regexp.Regexp) []model.TestCase {
	if len(includes) == 0 && len(excludes) == 0 {
		return cases
	}

	selected := make([]model.TestCase, 0, len(cases))
	for _, c := range cases {
		id := c.ID()

		include := len(includes) == 0
		for _, p := range includes {
			if p.MatchString(id) {
				include = true
				break
			}
		}
		if !include {
			continue
		}

		excluded := false
		for _, p := range excludes {
			if p.MatchString(id) {
				excluded = true
				break
			}
		}
		if !excluded {
			selected = append(selected, c)
		}
	}
	return selected
}
