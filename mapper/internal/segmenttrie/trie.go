/*
   Copyright 2025 The DIRPX Authors

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package segmenttrie

import (
	"errors"
	"strings"
)

// Trie is a segment-aware prefix index over error names. Names are split
// into segments on '_' and '.', so "OUTSIDE_DEPENDENCY" is a two-segment
// prefix of "OUTSIDE_DEPENDENCY_RETURNED_A_TEMPORARY_ERROR" and
// "billing.card" a prefix of "billing.card_declined". The wildcard "*"
// matches exactly one segment. Lookups return the longest matching prefix,
// so a more specific rule wins over a shorter one.
//
// A Trie is not safe for concurrent Insert; after the last Insert it may be
// read concurrently.
type Trie[T any] struct {
	// children contains next segments, including "*" for a single-segment wildcard.
	children map[string]*Trie[T]
	hasVal   bool
	val      T
	// pattern is the prefix as inserted, kept for MatchWithPattern.
	pattern string
}

// ErrInvalidPrefix is returned when inserting a prefix that is empty, has
// empty segments or invalid characters, or consists only of wildcards.
var ErrInvalidPrefix = errors.New("segmenttrie: invalid prefix")

// New creates an empty trie ready for inserts.
func New[T any]() *Trie[T] {
	return &Trie[T]{children: make(map[string]*Trie[T])}
}

// Insert associates val with prefix. Inserting the same prefix twice keeps
// the later value.
//
// Examples:
//
//	"OUTSIDE_DEPENDENCY"
//	"billing.card_declined"
//	"*_NOT_FOUND"
func (t *Trie[T]) Insert(prefix string, val T) error {
	if t == nil {
		return ErrInvalidPrefix
	}
	segs, ok := split(prefix, true)
	if !ok || len(segs) == 0 {
		return ErrInvalidPrefix
	}
	allWild := true
	for _, s := range segs {
		if s != "*" {
			allWild = false
			break
		}
	}
	if allWild {
		return ErrInvalidPrefix
	}

	cur := t
	for _, s := range segs {
		child, exists := cur.children[s]
		if !exists {
			child = New[T]()
			cur.children[s] = child
		}
		cur = child
	}
	cur.hasVal = true
	cur.val = val
	cur.pattern = prefix
	return nil
}

// Match returns the value of the longest prefix of name, if any.
func (t *Trie[T]) Match(name string) (T, bool) {
	v, ok, _ := t.MatchWithPattern(name)
	return v, ok
}

// MatchWithPattern is Match plus the prefix as it was inserted.
// At equal depth an exact segment beats the wildcard.
func (t *Trie[T]) MatchWithPattern(name string) (T, bool, string) {
	var zero T
	if t == nil {
		return zero, false, ""
	}
	segs, ok := split(name, false)
	if !ok {
		return zero, false, ""
	}

	best := -1
	var bestNode *Trie[T]
	var walk func(n *Trie[T], depth int)
	walk = func(n *Trie[T], depth int) {
		if n.hasVal && depth > best {
			best, bestNode = depth, n
		}
		if depth == len(segs) {
			return
		}
		if next, ok := n.children[segs[depth]]; ok {
			walk(next, depth+1)
		}
		if next, ok := n.children["*"]; ok {
			walk(next, depth+1)
		}
	}
	walk(t, 0)

	if bestNode == nil {
		return zero, false, ""
	}
	return bestNode.val, true, bestNode.pattern
}

// split breaks s into segments on '_' and '.'. Each segment must be
// non-empty and made of ASCII letters, digits and '-'; "*" is accepted as a
// segment when allowWildcard is set.
func split(s string, allowWildcard bool) ([]string, bool) {
	if s == "" {
		return nil, true
	}
	segs := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '.' })
	// FieldsFunc drops empty fields; count separators to catch "A__B".
	if len(segs) != strings.Count(s, "_")+strings.Count(s, ".")+1 {
		return nil, false
	}
	for _, seg := range segs {
		if !validSegment(seg, allowWildcard) {
			return nil, false
		}
	}
	return segs, true
}

func validSegment(seg string, allowWildcard bool) bool {
	if allowWildcard && seg == "*" {
		return true
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' {
			continue
		}
		return false
	}
	return seg != ""
}
