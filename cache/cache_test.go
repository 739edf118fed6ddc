package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/blackjack/rules"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()

	calls := 0
	loader := func(r rules.Rules, key string) (interface{}, error) {
		calls++
		return key + "-object", nil
	}

	r := rules.Default()
	obj, err := Load(r, "thing:"+r.Fingerprint(), loader)
	is.NoErr(err)
	is.Equal(obj, "thing:"+r.Fingerprint()+"-object")
	is.Equal(calls, 1)

	obj2, err := Load(r, "thing:"+r.Fingerprint(), loader)
	is.NoErr(err)
	is.Equal(obj2, obj)
	is.Equal(calls, 1)
}

func TestLoadError(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()

	boom := errors.New("boom")
	_, err := Load(rules.Default(), "broken", func(r rules.Rules, key string) (interface{}, error) {
		return nil, boom
	})
	is.Equal(err, boom)

	// A failed load is not cached.
	obj, err := Load(rules.Default(), "broken", func(r rules.Rules, key string) (interface{}, error) {
		return 42, nil
	})
	is.NoErr(err)
	is.Equal(obj, 42)
}
