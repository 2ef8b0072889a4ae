package scoring

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/prompts"
)

// Persona is one generated critic with its own rubric.
type Persona struct {
	Name     string   `json:"name"`
	Identity string   `json:"identity"`
	Rubric   []string `json:"rubric"`
}

// personaCount is how many critic personas are generated per domain.
const personaCount = 3

// defaultPersonas is the fallback critic panel used when generation fails.
var defaultPersonas = []Persona{
	{
		Name:     "Sam",
		Identity: "a senior practitioner who has been burned by vendor promises before",
		Rubric:   []string{"punishes claims without evidence", "rewards specifics about failure modes", "punishes anything that reads like a press release"},
	},
	{
		Name:     "Priya",
		Identity: "a skeptical team lead who decides what tools the team adopts",
		Rubric:   []string{"punishes vagueness about integration cost", "rewards honest scoping of what the tool does not do"},
	},
}

// PersonaCache is a process-lifetime store of generated critic panels keyed
// by (voiceID, domain). Injected so tests can reset it.
type PersonaCache struct {
	mu      sync.Mutex
	entries map[string][]Persona
}

// NewPersonaCache builds an empty persona cache.
func NewPersonaCache() *PersonaCache {
	return &PersonaCache{entries: make(map[string][]Persona)}
}

func (c *PersonaCache) get(key string) ([]Persona, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	personas, ok := c.entries[key]
	return personas, ok
}

func (c *PersonaCache) put(key string, personas []Persona) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = personas
}

// Reset clears the cache.
func (c *PersonaCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]Persona)
}

type personaReply struct {
	Personas []Persona `json:"personas"`
}

// personasFor returns the critic panel for a persona context, generating
// and caching it on first use. Generation failures fall back to the default
// panel without caching, so a later pass can retry.
func (s *Scorer) personasFor(ctx context.Context, pc PersonaContext) []Persona {
	key := fmt.Sprintf("%s|%s", pc.VoiceID, pc.Domain)
	if personas, ok := s.personas.get(key); ok {
		return personas
	}

	prompt := prompts.Format(prompts.MustGet("scoring.json", "generate-personas"), map[string]string{
		"Count":  fmt.Sprintf("%d", personaCount),
		"Domain": pc.Domain,
	})

	var reply personaReply
	_, err := s.client.GenerateJSON(ctx, prompt, &reply, llm.JSONOptions{
		Options: llm.Options{Tier: llm.TierLite, Meta: llm.CallMeta{JobID: pc.JobID, Purpose: "generate-personas"}},
	})
	if err != nil || len(reply.Personas) < 2 {
		s.log.Warnf("persona generation failed (%v), using default panel", err)
		return defaultPersonas
	}

	personas := reply.Personas
	if len(personas) > personaCount {
		personas = personas[:personaCount]
	}
	s.personas.put(key, personas)
	return personas
}

// scorePersonas runs each critic against the content and averages their
// scores. A single failed critic is skipped; all critics failing fails the
// dimension.
func (s *Scorer) scorePersonas(ctx context.Context, content string, pc PersonaContext) (float64, error) {
	personas := s.personasFor(ctx, pc)

	var total float64
	scored := 0
	var lastErr error
	for _, persona := range personas {
		score, err := judgeScore(ctx, s.client, "judge-persona", map[string]string{
			"Name":     persona.Name,
			"Identity": persona.Identity,
			"Rubric":   "- " + strings.Join(persona.Rubric, "\n- "),
			"Content":  llm.Truncate(content, maxJudgeContent),
		}, llm.CallMeta{JobID: pc.JobID, Purpose: "score:persona"})
		if err != nil {
			lastErr = err
			continue
		}
		total += score
		scored++
	}

	if scored == 0 {
		return 0, fmt.Errorf("all persona critics failed: %w", lastErr)
	}
	return total / float64(scored), nil
}
