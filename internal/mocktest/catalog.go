package mocktest

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultCatalog []byte

type Question struct {
	ID            int      `yaml:"id" json:"id"`
	Question      string   `yaml:"question" json:"question"`
	Options       []string `yaml:"options" json:"options"`
	CorrectAnswer string   `yaml:"correctAnswer" json:"correctAnswer,omitempty"`
	Category      string   `yaml:"category" json:"category"`
}

func (q Question) hasOption(choice string) bool {
	for _, o := range q.Options {
		if o == choice {
			return true
		}
	}
	return false
}

type Test struct {
	ID        int        `yaml:"id" json:"id"`
	Title     string     `yaml:"title" json:"title"`
	Questions []Question `yaml:"questions" json:"questions"`
}

func (t *Test) question(id int) (Question, bool) {
	for _, q := range t.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// TestSummary is what the test list shows before a session starts.
type TestSummary struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	QuestionCount int    `json:"questionCount"`
}

type Catalog struct {
	tests map[int]*Test
}

// DefaultCatalog decodes the catalog compiled into the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc struct {
		Tests []*Test `yaml:"tests"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode mock test catalog: %w", err)
	}

	c := &Catalog{tests: make(map[int]*Test, len(doc.Tests))}
	for _, t := range doc.Tests {
		if _, dup := c.tests[t.ID]; dup {
			return nil, fmt.Errorf("duplicate mock test id %d", t.ID)
		}
		for _, q := range t.Questions {
			if !q.hasOption(q.CorrectAnswer) {
				return nil, fmt.Errorf("test %d question %d: correct answer %q is not an option", t.ID, q.ID, q.CorrectAnswer)
			}
		}
		c.tests[t.ID] = t
	}
	return c, nil
}

func (c *Catalog) Get(id int) (*Test, bool) {
	t, ok := c.tests[id]
	return t, ok
}

func (c *Catalog) List() []TestSummary {
	out := make([]TestSummary, 0, len(c.tests))
	for _, t := range c.tests {
		out = append(out, TestSummary{ID: t.ID, Title: t.Title, QuestionCount: len(t.Questions)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
