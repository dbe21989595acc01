package cookie

import (
	"sort"
	"time"
)

// Jar is an ordered set of cookies, unique by (domain, name, path).
// Upsert replaces an existing entry in place so re-importing or
// re-refreshing never duplicates cookies.
type Jar struct {
	cookies []Cookie
	index   map[Key]int
}

// NewJar returns an empty jar.
func NewJar() *Jar {
	return &Jar{index: make(map[Key]int)}
}

// JarOf builds a jar from the given cookies, deduplicating by key in
// input order (later entries win).
func JarOf(cookies []Cookie) *Jar {
	j := NewJar()
	for _, c := range cookies {
		j.Upsert(c)
	}
	return j
}

// Upsert inserts the cookie or replaces the entry with the same key.
func (j *Jar) Upsert(c Cookie) {
	if j.index == nil {
		j.index = make(map[Key]int)
	}
	if i, ok := j.index[c.Key()]; ok {
		j.cookies[i] = c
		return
	}
	j.index[c.Key()] = len(j.cookies)
	j.cookies = append(j.cookies, c)
}

// Get returns the cookie with the given key, if present.
func (j *Jar) Get(k Key) (Cookie, bool) {
	i, ok := j.index[k]
	if !ok {
		return Cookie{}, false
	}
	return j.cookies[i], true
}

// Len returns the number of cookies in the jar.
func (j *Jar) Len() int {
	return len(j.cookies)
}

// Cookies returns the jar contents in insertion order.
// The returned slice is a copy.
func (j *Jar) Cookies() []Cookie {
	out := make([]Cookie, len(j.cookies))
	copy(out, j.cookies)
	return out
}

// Sorted returns the jar contents ordered by (domain, name, path) for
// reproducible serialization.
func (j *Jar) Sorted() []Cookie {
	out := j.Cookies()
	sort.Slice(out, func(a, b int) bool {
		if out[a].Domain != out[b].Domain {
			return out[a].Domain < out[b].Domain
		}
		if out[a].Name != out[b].Name {
			return out[a].Name < out[b].Name
		}
		return out[a].Path < out[b].Path
	})
	return out
}

// ByName reports which of the given cookie names are present in the jar,
// and which of those carry an expiry in the past.
func (j *Jar) ByName(names []string, now time.Time) (missing, expired []string) {
	present := make(map[string]*Cookie, len(j.cookies))
	for i := range j.cookies {
		c := &j.cookies[i]
		// A fresh duplicate name on another domain/path should not mask
		// an expired one, so prefer the unexpired entry.
		if prev, ok := present[c.Name]; ok && !prev.Expired(now) {
			continue
		}
		present[c.Name] = c
	}
	for _, name := range names {
		c, ok := present[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if c.Expired(now) {
			expired = append(expired, name)
		}
	}
	return missing, expired
}

// Valid reports whether the jar is usable for authenticated requests:
// non-empty, all required cookie names present and none of them expired.
func (j *Jar) Valid(required []string, now time.Time) bool {
	if j.Len() == 0 {
		return false
	}
	missing, expired := j.ByName(required, now)
	return len(missing) == 0 && len(expired) == 0
}

// Clone returns a deep copy of the jar.
func (j *Jar) Clone() *Jar {
	return JarOf(j.cookies)
}
