package cli

import (
	"regexp"
	"strings"
)

// regexpList is a repeatable flag value that compiles each occurrence as a
// regular expression at parse time. A plain string-slice flag would split
// values on commas, which breaks patterns like "label:[0-9]{1,3}".
type regexpList struct {
	patterns []*regexp.Regexp
}

func (l *regexpList) Set(value string) error {
	p, err := regexp.Compile(value)
	if err != nil {
		return err
	}
	l.patterns = append(l.patterns, p)
	return nil
}

func (l *regexpList) String() string {
	parts := make([]string, len(l.patterns))
	for i, p := range l.patterns {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

func (l *regexpList) Patterns() []*regexp.Regexp {
	return l.patterns
}
