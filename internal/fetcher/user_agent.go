package fetcher

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"
)

type UserAgentType string

const (
	UserAgentAuto    UserAgentType = "auto"
	UserAgentRandom  UserAgentType = "random"
	UserAgentChrome  UserAgentType = "chrome"
	UserAgentFirefox UserAgentType = "firefox"
	UserAgentSafari  UserAgentType = "safari"
	UserAgentEdge    UserAgentType = "edge"
)

// DefaultUserAgent is sent when "auto" is requested.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

var userAgents = map[UserAgentType][]string{
	UserAgentChrome: {
		DefaultUserAgent,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	},
	UserAgentFirefox: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	},
	UserAgentSafari: {
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	},
	UserAgentEdge: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
	},
}

// UserAgentSelector picks user agent strings. It is safe for concurrent use.
type UserAgentSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
	all []string
}

func NewUserAgentSelector() *UserAgentSelector {
	var all []string
	for _, agents := range userAgents {
		all = append(all, agents...)
	}
	sort.Strings(all)

	return &UserAgentSelector{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		all: all,
	}
}

// GetUserAgent returns a user agent for uaType. "auto" and "" give the
// default agent, "random" picks from every known agent, a browser name picks
// from that browser's agents, and anything else is used verbatim.
func (uas *UserAgentSelector) GetUserAgent(uaType string) string {
	normalized := UserAgentType(strings.ToLower(strings.TrimSpace(uaType)))

	switch normalized {
	case "", UserAgentAuto:
		return DefaultUserAgent
	case UserAgentRandom:
		return uas.pick(uas.all)
	}
	if agents, ok := userAgents[normalized]; ok {
		return uas.pick(agents)
	}
	return strings.TrimSpace(uaType)
}

func (uas *UserAgentSelector) pick(agents []string) string {
	uas.mu.Lock()
	defer uas.mu.Unlock()
	return agents[uas.rng.Intn(len(agents))]
}
