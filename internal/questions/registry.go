package questions

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed questionsets.yaml
var defaultSets []byte

// Kind is the answer shape a question accepts.
type Kind string

const (
	KindSingle   Kind = "single"
	KindMultiple Kind = "multiple"
	KindText     Kind = "text"
)

// TextLimit is the maximum length of a free-text answer, in characters.
const TextLimit = 1000

type Question struct {
	Key      string   `yaml:"key" json:"key"`
	Title    string   `yaml:"title" json:"title"`
	Type     Kind     `yaml:"type" json:"type"`
	Options  []string `yaml:"options,omitempty" json:"options,omitempty"`
	Required bool     `yaml:"required" json:"required"`

	optionIndex map[string]struct{}
}

// HasOption reports whether v is one of the question's enumerated options.
func (q *Question) HasOption(v string) bool {
	_, ok := q.optionIndex[v]
	return ok
}

// IsChoice reports whether answers to q are drawn from an option list.
func (q *Question) IsChoice() bool {
	return q.Type == KindSingle || q.Type == KindMultiple
}

// Set is one versioned, ordered list of questions.
type Set struct {
	Version   string      `yaml:"version" json:"version"`
	Title     string      `yaml:"title" json:"title"`
	Questions []*Question `yaml:"questions" json:"questions"`

	byKey map[string]*Question
}

func (s *Set) Question(key string) (*Question, bool) {
	q, ok := s.byKey[key]
	return q, ok
}

// Keys returns the question keys in presentation order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.Questions))
	for i, q := range s.Questions {
		keys[i] = q.Key
	}
	return keys
}

// ChoiceQuestions returns the single- and multi-choice questions in order.
func (s *Set) ChoiceQuestions() []*Question {
	out := make([]*Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if q.IsChoice() {
			out = append(out, q)
		}
	}
	return out
}

func (s *Set) index() error {
	if s.Version == "" {
		return errors.New("question set without version")
	}
	if len(s.Questions) == 0 {
		return fmt.Errorf("question set %s has no questions", s.Version)
	}
	s.byKey = make(map[string]*Question, len(s.Questions))
	for _, q := range s.Questions {
		if q.Key == "" {
			return fmt.Errorf("question set %s: question without key", s.Version)
		}
		if _, dup := s.byKey[q.Key]; dup {
			return fmt.Errorf("question set %s: duplicate key %q", s.Version, q.Key)
		}
		switch q.Type {
		case KindSingle, KindMultiple:
			if len(q.Options) == 0 {
				return fmt.Errorf("question set %s: %s has no options", s.Version, q.Key)
			}
		case KindText:
			if len(q.Options) > 0 {
				return fmt.Errorf("question set %s: free-text %s declares options", s.Version, q.Key)
			}
		default:
			return fmt.Errorf("question set %s: %s has unknown type %q", s.Version, q.Key, q.Type)
		}
		q.optionIndex = make(map[string]struct{}, len(q.Options))
		for _, o := range q.Options {
			if _, dup := q.optionIndex[o]; dup {
				return fmt.Errorf("question set %s: %s repeats option %q", s.Version, q.Key, o)
			}
			q.optionIndex[o] = struct{}{}
		}
		s.byKey[q.Key] = q
	}
	return nil
}

type setsFile struct {
	QuestionSets []*Set `yaml:"questionSets"`
}

type Registry struct {
	mu   sync.RWMutex
	sets map[string]*Set
}

func NewRegistry() *Registry {
	return &Registry{
		sets: make(map[string]*Set),
	}
}

// Default returns a registry holding the built-in question sets.
func Default() (*Registry, error) {
	return Parse(defaultSets)
}

// LoadFromFile reads question sets from a YAML file. An empty path loads
// the built-in sets.
func LoadFromFile(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question sets: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var file setsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question sets: %w", err)
	}
	if len(file.QuestionSets) == 0 {
		return nil, errors.New("no question sets defined")
	}

	registry := NewRegistry()
	for _, s := range file.QuestionSets {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *Registry) Register(s *Set) error {
	if err := s.index(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.sets[s.Version]; dup {
		return fmt.Errorf("duplicate question set version %q", s.Version)
	}
	r.sets[s.Version] = s
	return nil
}

func (r *Registry) Get(version string) (*Set, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sets[version]
	if !ok {
		return nil, fmt.Errorf("unknown question set %q", version)
	}
	return s, nil
}

// Versions returns the registered versions, sorted.
func (r *Registry) Versions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sets))
	for v := range r.sets {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
