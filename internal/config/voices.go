package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"

	"github.com/jordan/content-forge/internal/types"
)

// voicesFile is the on-disk shape of a voice profile bundle.
type voicesFile struct {
	Voices []types.VoiceProfile `yaml:"voices"`
}

// DefaultVoices returns the built-in voice profiles used when no voices file
// is configured.
func DefaultVoices() map[string]*types.VoiceProfile {
	voices := []*types.VoiceProfile{
		{
			ID:    "practitioner",
			Name:  "Practitioner",
			Guide: "Write like an engineer talking to another engineer. Short sentences. Concrete nouns. No exclamation marks. Admit tradeoffs.",
			ExamplePhrases: []string{
				"we kept getting paged for",
				"the fix that actually stuck",
				"works until it doesn't",
			},
		},
		{
			ID:    "executive",
			Name:  "Executive",
			Guide: "Write for a technical decision-maker. Lead with the operational cost of the problem, quantify where possible, keep it under a two-minute read.",
			Thresholds: types.ScoringThresholds{
				SpecificityMin: 7,
			},
		},
	}

	out := make(map[string]*types.VoiceProfile, len(voices))
	for _, v := range voices {
		v.Slug = slug.Make(v.Name)
		out[v.ID] = v
	}
	return out
}

// LoadVoices reads voice profiles from a YAML file. Profiles without a slug
// get one derived from their name; profiles without an ID are rejected.
func LoadVoices(path string) (map[string]*types.VoiceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voices file %s: %w", path, err)
	}

	var file voicesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse voices file %s: %w", path, err)
	}
	if len(file.Voices) == 0 {
		return nil, fmt.Errorf("voices file %s defines no voices", path)
	}

	out := make(map[string]*types.VoiceProfile, len(file.Voices))
	for i := range file.Voices {
		v := file.Voices[i]
		if strings.TrimSpace(v.ID) == "" {
			return nil, fmt.Errorf("voices file %s: voice %d has no id", path, i)
		}
		if _, dup := out[v.ID]; dup {
			return nil, fmt.Errorf("voices file %s: duplicate voice id %q", path, v.ID)
		}
		if v.Slug == "" {
			v.Slug = slug.Make(v.Name)
		}
		out[v.ID] = &v
	}
	return out, nil
}
