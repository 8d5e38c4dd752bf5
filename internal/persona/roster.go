package persona

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

const (
	smartlessPrompt = "You are Smartless, the podcast trio of Jason Bateman, Sean Hayes and Will Arnett. Riff with warmth and playful teasing, ask your guest curious questions, and keep each reply under 120 words. When the chat has run its course, thank the guest and say \"Goodbye\"."
	hubermanPrompt  = "You are Andrew Huberman, host of the Huberman Lab podcast. Explain science clearly, cite mechanisms and practical protocols, and keep each reply under 120 words. When you are ready to wrap up, end with \"I look forward to our next conversation.\""
)

// Pair names the initiator and responder used when the user does not pick any.
type Pair struct {
	Initiator string `yaml:"initiator" json:"initiator"`
	Responder string `yaml:"responder" json:"responder"`
}

// File is the on-disk roster layout.
type File struct {
	Agents      []AgentSpec `yaml:"agents" json:"agents" jsonschema:"required"`
	DefaultPair *Pair       `yaml:"default_pair,omitempty" json:"default_pair,omitempty"`
}

// Roster is an ordered, name-indexed set of agent specs.
type Roster struct {
	agents []AgentSpec
	byName map[string]int
	pair   Pair
}

// Builtin returns the two personas the tool ships with.
func Builtin() *Roster {
	r, err := NewRoster([]AgentSpec{
		{
			Name:               "smartless",
			Persona:            smartlessPrompt,
			TerminationPhrases: []string{"Goodbye"},
			Color:              "#ff71ce",
		},
		{
			Name:               "Huberman-Lab",
			Persona:            hubermanPrompt,
			TerminationPhrases: []string{"I look forward"},
			Color:              "#01cdfe",
		},
	}, nil)
	if err != nil {
		panic(err)
	}
	return r
}

// NewRoster validates specs and builds a roster. A nil pair defaults to the
// first two agents.
func NewRoster(specs []AgentSpec, pair *Pair) (*Roster, error) {
	r := &Roster{byName: map[string]int{}}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		spec.Name = strings.TrimSpace(spec.Name)
		if _, dup := r.byName[spec.Name]; dup {
			return nil, fmt.Errorf("%s: %w", spec.Name, ErrDuplicateName)
		}
		r.byName[spec.Name] = len(r.agents)
		r.agents = append(r.agents, spec.Clone())
	}
	switch {
	case pair != nil:
		r.pair = *pair
	case len(r.agents) >= 2:
		r.pair = Pair{Initiator: r.agents[0].Name, Responder: r.agents[1].Name}
	case len(r.agents) == 1:
		r.pair = Pair{Initiator: r.agents[0].Name, Responder: r.agents[0].Name}
	}
	return r, nil
}

// LoadRoster reads a YAML roster file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes YAML roster content.
func ParseRoster(data []byte) (*Roster, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, fmt.Errorf("parsing roster: no agents defined")
	}
	return NewRoster(file.Agents, file.DefaultPair)
}

// Lookup returns the spec registered under name.
func (r *Roster) Lookup(name string) (AgentSpec, error) {
	idx, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return AgentSpec{}, fmt.Errorf("%q: %w", name, ErrUnknownAgent)
	}
	return r.agents[idx].Clone(), nil
}

// Resolve returns the roster spec for name, or an ad hoc spec when the name is
// not registered. An empty name is an error.
func (r *Roster) Resolve(name string) (AgentSpec, error) {
	if strings.TrimSpace(name) == "" {
		return AgentSpec{}, ErrEmptyName
	}
	if spec, err := r.Lookup(name); err == nil {
		return spec, nil
	}
	return AdHoc(name), nil
}

// Agents returns a copy of every spec in declaration order.
func (r *Roster) Agents() []AgentSpec {
	out := make([]AgentSpec, len(r.agents))
	for i, spec := range r.agents {
		out[i] = spec.Clone()
	}
	return out
}

// Names lists agent names in declaration order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.agents))
	for i, spec := range r.agents {
		out[i] = spec.Name
	}
	return out
}

// DefaultPair is the initiator/responder pair pre-filled in the form.
func (r *Roster) DefaultPair() Pair {
	return r.pair
}

// Schema renders the JSON schema of the roster file.
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}
	schema := reflector.Reflect(&File{})
	schema.Title = "duologue roster"
	schema.Description = "Agent personas and termination phrases for duologue duets."
	return json.MarshalIndent(schema, "", "  ")
}
