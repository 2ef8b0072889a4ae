package prompts

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jordan/content-forge/internal/llm"
	"github.com/jordan/content-forge/internal/types"
)

// Cache is a bounded, process-lifetime key→phrase-list store. Explicitly
// constructed and injected so tests can reset it and production can size it.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]string
	max     int
}

// NewCache builds a cache holding at most max entries. Insertion past the
// bound evicts an arbitrary entry; the working set (voice × domain pairs) is
// small enough that eviction order does not matter.
func NewCache(max int) *Cache {
	if max <= 0 {
		max = 64
	}
	return &Cache{entries: make(map[string][]string), max: max}
}

func (c *Cache) get(key string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	phrases, ok := c.entries[key]
	return phrases, ok
}

func (c *Cache) put(key string, phrases []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		for k := range c.entries {
			delete(c.entries, k)
			break
		}
	}
	c.entries[key] = phrases
}

// Reset clears the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]string)
}

// DefaultBannedPhrases is the fixed fallback list used when generation of a
// domain-specific list fails.
var DefaultBannedPhrases = []string{
	"game-changer",
	"game changing",
	"revolutionary",
	"cutting-edge",
	"best-in-class",
	"world-class",
	"seamless",
	"seamlessly",
	"effortless",
	"unlock the power",
	"unleash",
	"supercharge",
	"empower your team",
	"take it to the next level",
	"in today's fast-paced world",
	"look no further",
	"one-stop shop",
	"robust and scalable",
}

// minBannedPhrases is the smallest generated list accepted as well-formed.
const minBannedPhrases = 10

// bannedPhraseRetries bounds regeneration attempts on malformed output.
const bannedPhraseRetries = 3

// BannedPhrases generates and caches per-(voice, domain) banned-phrase
// lists.
type BannedPhrases struct {
	client llm.Client
	cache  *Cache
	log    *logrus.Entry
}

// NewBannedPhrases builds the generator over a dispatcher client and an
// injected cache.
func NewBannedPhrases(client llm.Client, cache *Cache, log *logrus.Logger) *BannedPhrases {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BannedPhrases{
		client: client,
		cache:  cache,
		log:    log.WithField("component", "prompts"),
	}
}

type bannedPhraseReply struct {
	Phrases []string `json:"phrases"`
}

// For returns the banned-phrase list for a (voice, domain) pair, generating
// it once and caching it for the lifetime of the process. Malformed output
// is retried up to 3 times before falling back to the fixed default list.
func (b *BannedPhrases) For(ctx context.Context, voice *types.VoiceProfile, domain string) []string {
	key := fmt.Sprintf("%s|%s", voice.ID, domain)
	if phrases, ok := b.cache.get(key); ok {
		return phrases
	}

	prompt := Format(MustGet("generation.json", "banned-phrases-request"), map[string]string{
		"Domain":    domain,
		"VoiceName": voice.Name,
	})
	prompt += `

Return JSON: {"phrases": ["..."]}`

	for attempt := 0; attempt < bannedPhraseRetries; attempt++ {
		var reply bannedPhraseReply
		_, err := b.client.GenerateJSON(ctx, prompt, &reply, llm.JSONOptions{
			Options: llm.Options{Tier: llm.TierLite, Meta: llm.CallMeta{Purpose: "banned-phrases"}},
		})
		if err != nil {
			b.log.Warnf("banned phrase generation attempt %d failed: %v", attempt+1, err)
			continue
		}
		if len(reply.Phrases) < minBannedPhrases {
			b.log.Warnf("banned phrase generation attempt %d returned %d phrases, want >= %d", attempt+1, len(reply.Phrases), minBannedPhrases)
			continue
		}

		b.cache.put(key, reply.Phrases)
		return reply.Phrases
	}

	b.log.Warn("banned phrase generation exhausted retries, using default list")
	b.cache.put(key, DefaultBannedPhrases)
	return DefaultBannedPhrases
}
