// Package rowmap assembles parent records and their children from the flat
// rows a relational query returns.
//
// Two shapes are supported:
//
//   - WithChildren: one query yields at most one parent, a second query
//     yields that parent's children already filtered by the database.
//   - Group: a single JOIN query yields one row per (parent, child) pair,
//     which is grouped back into distinct parents in first-seen order.
//
// Both are generic over the record types and use caller-supplied
// functions instead of reflection.
package rowmap

import "iter"

// WithChildren returns the single parent in parents with children attached.
//
// ok is false when parents is empty, whatever children holds. Only the
// first parent is used. Children are attached as given, without matching
// keys, since the query that produced them already filtered by parent.
func WithChildren[P, C any](parents []P, children []C, attach func(*P, []C)) (parent P, ok bool) {
	if len(parents) == 0 {
		return parent, false
	}

	parent = parents[0]
	attach(&parent, children)

	return parent, true
}

// Group folds flat JOIN rows into distinct parents, each with its children.
//
// split decodes a row into its parent part, its child part, and whether
// the child side is present (false for an outer-join row with no match).
// key identifies a parent. attach appends one child to a parent.
//
// Parents are emitted in the order their key is first seen; rows for the
// same parent need not be contiguous. A row without a child registers its
// parent and adds nothing. An empty sequence yields an empty, non-nil slice.
func Group[R any, K comparable, P, C any](
	rows iter.Seq[R],
	split func(R) (P, C, bool),
	key func(P) K,
	attach func(*P, C),
) []P {
	out := []P{}
	index := make(map[K]int)

	for row := range rows {
		parent, child, hasChild := split(row)

		k := key(parent)
		i, seen := index[k]
		if !seen {
			i = len(out)
			index[k] = i
			out = append(out, parent)
		}

		if hasChild {
			attach(&out[i], child)
		}
	}

	return out
}
