package lesson

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarStudents(t *testing.T) {
	lessons := []Lesson{
		{ID: "1", Student: "Anna"},
		{ID: "2", Student: "Jonathan"},
		{ID: "3", Student: "Bob"},
		{ID: "4", Student: "Anna"},
		{ID: "5", Student: "ana"},
	}

	tests := []struct {
		name    string
		student string
		want    []string
	}{
		{name: "typo", student: "Ana", want: []string{"Anna", "ana"}},
		{name: "close spelling", student: " Jonathon ", want: []string{"Jonathan"}},
		{name: "known student", student: "Bob", want: nil},
		{name: "too different", student: "Rob", want: nil},
		{name: "blank", student: "  ", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SimilarStudents(lessons, tt.student))
		})
	}
}
