package signal

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// OriginPolicy is the browser origin allow-list shared by the websocket
// upgrader and the CORS middleware.
type OriginPolicy struct {
	allowAll bool
	origins  []string
}

func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			p.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn().Str("module", "signal").Str("origin", origin).Msg("ignoring invalid origin in configuration")
			continue
		}
		p.origins = append(p.origins, normalized)
	}
	p.origins = lo.Uniq(p.origins)
	return p
}

// Allowed reports whether a request carrying the Origin header may proceed.
// Requests without an Origin header come from non-browser clients and are
// allowed.
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" || p == nil || p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	return lo.Contains(p.origins, normalized)
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil {
		return "", false
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
