package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/blackjack/rules"
)

// The cache is a package used for large computed objects we want to build
// once and reuse, especially when serving many simulations or queries against
// the same rule set. For example, strategy charts take hundreds of full-shoe
// solves to generate.

type cache struct {
	sync.Mutex
	objects map[string]interface{}
}

type loadFunc func(r rules.Rules, key string) (interface{}, error)

// GlobalObjectCache is our global object cache, of course.
var GlobalObjectCache *cache

func (c *cache) load(r rules.Rules, key string, loadFunc loadFunc) error {
	log.Debug().Str("key", key).Msg("loading into cache")

	obj, err := loadFunc(r, key)
	if err != nil {
		return err
	}
	c.objects[key] = obj

	return nil
}

func (c *cache) get(r rules.Rules, key string, loadFunc loadFunc) (interface{}, error) {

	var ok bool
	var obj interface{}
	c.Lock()
	defer c.Unlock()
	if obj, ok = c.objects[key]; !ok {
		err := c.load(r, key, loadFunc)
		if err != nil {
			return nil, err
		}
		return c.objects[key], nil
	}
	log.Debug().Str("key", key).Msg("getting obj from cache")

	return obj, nil
}

func CreateGlobalObjectCache() {
	GlobalObjectCache = &cache{objects: make(map[string]interface{})}
}

// Load fetches the object under name, invoking loadFunc on a miss. Callers
// should derive name from rules.Fingerprint so distinct rule sets never
// share an entry.
func Load(r rules.Rules, name string, loadFunc loadFunc) (interface{}, error) {
	if GlobalObjectCache == nil {
		CreateGlobalObjectCache()
	}
	return GlobalObjectCache.get(r, name, loadFunc)
}
