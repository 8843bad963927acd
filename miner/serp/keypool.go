package serp

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/mo"
)

// KeyPool cycles through SERP API keys. A key whose quota is exhausted is
// disabled for the lifetime of the pool; rotation skips disabled keys.
type KeyPool struct {
	mu   sync.Mutex
	keys []poolKey
	idx  int
}

type poolKey struct {
	value    string
	disabled bool
	reason   string
}

func NewKeyPool(keys []string) *KeyPool {
	p := &KeyPool{}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		p.keys = append(p.keys, poolKey{value: k})
	}
	return p
}

// LoadKeyPool reads one key per line. Blank lines and # comments are skipped.
func LoadKeyPool(path string) (*KeyPool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var keys []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewKeyPool(keys), nil
}

// Current returns the active key, or None when every key is disabled.
func (p *KeyPool) Current() mo.Option[string] {
	p.mu.Lock()
	defer p.mu.Unlock()

	for range p.keys {
		if !p.keys[p.idx].disabled {
			return mo.Some(p.keys[p.idx].value)
		}
		p.idx = (p.idx + 1) % len(p.keys)
	}
	return mo.None[string]()
}

// Rotate advances to the next enabled key.
func (p *KeyPool) Rotate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return
	}
	p.idx = (p.idx + 1) % len(p.keys)
}

// DisableCurrent removes the active key from rotation and advances.
func (p *KeyPool) DisableCurrent(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.keys) == 0 {
		return
	}
	k := &p.keys[p.idx]
	if !k.disabled {
		k.disabled = true
		k.reason = reason
		log.Warn().Str("reason", reason).Int("remaining", p.enabledLocked()).Msg("SERP API key disabled")
	}
	p.idx = (p.idx + 1) % len(p.keys)
}

// Enabled reports how many keys are still usable.
func (p *KeyPool) Enabled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabledLocked()
}

func (p *KeyPool) enabledLocked() int {
	n := 0
	for _, k := range p.keys {
		if !k.disabled {
			n++
		}
	}
	return n
}
