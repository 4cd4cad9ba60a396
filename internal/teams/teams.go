// Package teams groups contacts into named teams for the management
// overview.
package teams

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yukikurage/workload-dashboard/internal/utils"
)

//go:embed default_teams.yaml
var defaultRoster []byte

const defaultFallback = "Other"

type teamFile struct {
	Fallback string `yaml:"fallback"`
	Teams    []struct {
		Name    string   `yaml:"name"`
		Members []string `yaml:"members"`
	} `yaml:"teams"`
}

// Roster maps normalized first names to team names. Team order is the
// order of the roster file, with the fallback team last.
type Roster struct {
	names    []string
	fallback string
	byMember map[string]string
}

// Default returns the built-in roster.
func Default() *Roster {
	r, err := Parse(defaultRoster)
	if err != nil {
		panic(fmt.Sprintf("invalid embedded team roster: %v", err))
	}
	return r
}

// Load reads a roster file; an empty path yields the built-in roster.
func Load(path string) (*Roster, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read team roster: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Roster, error) {
	var file teamFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse team roster: %w", err)
	}

	r := &Roster{
		fallback: strings.TrimSpace(file.Fallback),
		byMember: make(map[string]string),
	}
	if r.fallback == "" {
		r.fallback = defaultFallback
	}

	for _, team := range file.Teams {
		name := strings.TrimSpace(team.Name)
		if name == "" {
			return nil, fmt.Errorf("parse team roster: team without name")
		}
		if name == r.fallback {
			return nil, fmt.Errorf("parse team roster: team %q clashes with the fallback team", name)
		}
		r.names = append(r.names, name)
		for _, member := range team.Members {
			key := utils.NormalizePersonName(member)
			if key == "" {
				continue
			}
			if _, exists := r.byMember[key]; !exists {
				r.byMember[key] = name
			}
		}
	}
	return r, nil
}

// Names lists every team including the fallback.
func (r *Roster) Names() []string {
	names := make([]string, 0, len(r.names)+1)
	names = append(names, r.names...)
	return append(names, r.fallback)
}

func (r *Roster) Fallback() string {
	return r.fallback
}

// Resolve matches the first name, then the first word of the full name,
// ignoring case and diacritics.
func (r *Roster) Resolve(firstName, fullName string) string {
	if team, ok := r.byMember[utils.NormalizePersonName(firstName)]; ok {
		return team
	}
	if team, ok := r.byMember[utils.NormalizePersonName(utils.FirstWord(fullName))]; ok {
		return team
	}
	return r.fallback
}
