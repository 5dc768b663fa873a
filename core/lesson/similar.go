package lesson

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/tutorbook/core"
)

// studentMaxSim is the similarity ratio from which two different names are reported.
var studentMaxSim = .8

// SimilarStudents returns the known student names that look like a typo of `name`:
// names that differ from it but whose similarity ratio reaches studentMaxSim.
// Students stay plain strings, this is only a hint for the caller.
func SimilarStudents(lessons []Lesson, name string) []string {
	name = core.CleanString(name)
	if name == "" {
		return nil
	}
	lname := strings.Split(strings.ToLower(name), "")

	var similar []string
	seen := make(map[string]struct{})
	for _, l := range lessons {
		if l.Student == name {
			continue
		}
		if _, ok := seen[l.Student]; ok {
			continue
		}
		seen[l.Student] = struct{}{}
		ratio := difflib.NewMatcher(lname, strings.Split(strings.ToLower(l.Student), "")).Ratio()
		if ratio >= studentMaxSim {
			similar = append(similar, l.Student)
		}
	}
	return similar
}
