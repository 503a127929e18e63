package useragent

import (
	"math/rand/v2"

	"socmint/internal/components/telemetry"
)

// Default is the pool used when nothing else is configured.
var Default = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 15_2 like Mac OS X)",
}

// Provider hands out a user agent for every outgoing request.
type Provider interface {
	Next() string
}

// Pool picks uniformly at random from a fixed list of agents.
type Pool struct {
	agents []string
	tel    telemetry.API
}

func NewPool(agents []string, tel telemetry.API) Pool {
	if len(agents) == 0 {
		agents = Default
	}
	return Pool{agents: agents, tel: tel}
}

func (p Pool) Next() string {
	ua := p.agents[rand.IntN(len(p.agents))]
	if p.tel != nil {
		p.tel.ReportDebug("selected user-agent", ua)
	}
	return ua
}

// Static always returns the same agent.
type Static string

func (s Static) Next() string {
	return string(s)
}
