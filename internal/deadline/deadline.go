// Package deadline turns CLI deadline input into a stored deadline string.
//
// ISO-8601 input is kept verbatim. Anything else is read as natural language
// ("tomorrow 5pm", "next friday") relative to now and formatted as a local
// date-time without zone.
package deadline

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
)

// Layout is the format of parsed natural-language deadlines.
const Layout = "2006-01-02T15:04:05"

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Parse returns the deadline to store for input. Empty input yields "".
func Parse(input string, now time.Time) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}
	if schema.ValidDeadline(input) {
		return input, nil
	}

	r, err := parser.Parse(input, now)
	if err != nil {
		return "", &store.ValidationError{Field: "deadline", Message: "Invalid deadline: " + err.Error()}
	}
	if r == nil {
		return "", &store.ValidationError{Field: "deadline", Message: "Invalid deadline: " + input}
	}
	return r.Time.Format(Layout), nil
}
