package bridge

import (
	"slices"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"stackbridge/internal/bridge/model"
)

const (
	statusKey       = "status"
	technologiesKey = "technologies"
)

// answerCache holds the short-lived status and technologies answers.
// A zero TTL disables the corresponding cache.
type answerCache struct {
	status       *ttlcache.Cache[string, model.Status]
	technologies *ttlcache.Cache[string, model.SupportedTechnologies]
}

func newAnswerCache(statusTTL, technologiesTTL time.Duration) *answerCache {
	c := &answerCache{}
	if statusTTL > 0 {
		c.status = ttlcache.New[string, model.Status](
			ttlcache.WithTTL[string, model.Status](statusTTL),
			ttlcache.WithDisableTouchOnHit[string, model.Status](),
		)
		go c.status.Start()
	}
	if technologiesTTL > 0 {
		c.technologies = ttlcache.New[string, model.SupportedTechnologies](
			ttlcache.WithTTL[string, model.SupportedTechnologies](technologiesTTL),
			ttlcache.WithDisableTouchOnHit[string, model.SupportedTechnologies](),
		)
		go c.technologies.Start()
	}
	return c
}

func (c *answerCache) getStatus() (model.Status, bool) {
	if c.status == nil {
		return model.Status{}, false
	}
	item := c.status.Get(statusKey)
	if item == nil {
		return model.Status{}, false
	}
	return cloneStatus(item.Value()), true
}

func (c *answerCache) setStatus(s model.Status) {
	if c.status != nil {
		c.status.Set(statusKey, cloneStatus(s), ttlcache.DefaultTTL)
	}
}

func (c *answerCache) getTechnologies() (model.SupportedTechnologies, bool) {
	if c.technologies == nil {
		return model.SupportedTechnologies{}, false
	}
	item := c.technologies.Get(technologiesKey)
	if item == nil {
		return model.SupportedTechnologies{}, false
	}
	return cloneTechnologies(item.Value()), true
}

func (c *answerCache) setTechnologies(t model.SupportedTechnologies) {
	if c.technologies != nil {
		c.technologies.Set(technologiesKey, cloneTechnologies(t), ttlcache.DefaultTTL)
	}
}

func (c *answerCache) close() {
	if c.status != nil {
		c.status.Stop()
	}
	if c.technologies != nil {
		c.technologies.Stop()
	}
}

func cloneStatus(s model.Status) model.Status {
	out := s
	if s.Features != nil {
		out.Features = make(map[string]bool, len(s.Features))
		for k, v := range s.Features {
			out.Features[k] = v
		}
	}
	if s.EngineVersion != nil {
		v := *s.EngineVersion
		out.EngineVersion = &v
	}
	return out
}

func cloneTechnologies(t model.SupportedTechnologies) model.SupportedTechnologies {
	return model.SupportedTechnologies{
		Frontend: slices.Clone(t.Frontend),
		Backend:  slices.Clone(t.Backend),
		Database: slices.Clone(t.Database),
		Tools:    slices.Clone(t.Tools),
	}
}
