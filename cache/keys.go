package cache

import "strings"

/*
	A cache key is the operation name plus its parameter tuple. Keys are
	rendered as "op/arg1/arg2" so entries for the same operation share a
	prefix and can be invalidated together.
*/

type Key struct {
	Op   string
	Args []string
}

func NewKey(op string, args ...string) Key {
	return Key{Op: op, Args: args}
}

func (k Key) String() string {
	if len(k.Args) == 0 {
		return k.Op
	}
	return k.Op + "/" + strings.Join(k.Args, "/")
}

// Pattern selects cache entries for invalidation. A pattern matches a key
// when the operation names are equal and the pattern's args are a prefix of
// the key's args; an arg-less pattern matches every key of that operation.
type Pattern struct {
	Op   string
	Args []string
}

func PatternOf(op string, args ...string) Pattern {
	return Pattern{Op: op, Args: args}
}

func (p Pattern) Matches(k Key) bool {
	if p.Op != k.Op {
		return false
	}
	if len(p.Args) > len(k.Args) {
		return false
	}
	for i, a := range p.Args {
		if k.Args[i] != a {
			return false
		}
	}
	return true
}
