// Package boolean implements the Boolean retrieval evaluator from
// spec.md §4.5: build an operator tree from a postfix token stream, then
// resolve it bottom-up into a sorted document-id list. The tree shape is a
// tagged sum type over {term, AND, OR, NOT}, grounded directly on
// original_source/Searcher.py's Operator/And/Or/Not class hierarchy and its
// resolve()/union()/intersect()/invert() methods — Go has no class
// hierarchy to match, so the tagged-union Node plus a switch on its Kind in
// Resolve plays the same role a virtual resolve() dispatch plays there.
//
// AND flattens its operand chain and sorts by resolved list length before
// merging, same as the original's And.resolve(); the pairwise intersection
// loop jumps ahead by floor(sqrt(len)) the way spec.md's skip pointers are
// meant to be exploited, even though here the lists have already been
// materialized from the on-disk postings. The pairwise union is a plain
// linear merge with no jumps.
package boolean

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/kestrel-ir/spindex/internal/codec"
	"github.com/kestrel-ir/spindex/internal/dictfile"
)

var (
	ErrMalformedPostfix = errors.New("boolean: malformed postfix expression")
	ErrNotBooleanMode   = errors.New("boolean: dictionary is not in boolean mode")
)

// Kind tags a Node's role in the operator tree.
type Kind int

const (
	KindTerm Kind = iota
	KindAnd
	KindOr
	KindNot
)

// Node is one operator-tree node. Term is populated only for KindTerm;
// Left/Right are populated for KindAnd/KindOr; only Left is populated for
// the unary KindNot.
type Node struct {
	Kind  Kind
	Term  string
	Left  *Node
	Right *Node
}

// BuildTree constructs an operator tree from postfix tokens (as produced by
// queryparse.ToPostfix) using the standard postfix-to-tree stack
// construction: operands push leaves, AND/OR pop two operands and push a
// binary node, NOT pops one operand and pushes a unary node.
func BuildTree(postfix []string) (*Node, error) {
	var stack []*Node
	pop := func() (*Node, error) {
		if len(stack) == 0 {
			return nil, ErrMalformedPostfix
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return n, nil
	}

	for _, tok := range postfix {
		switch tok {
		case "AND", "OR":
			right, err := pop()
			if err != nil {
				return nil, err
			}
			left, err := pop()
			if err != nil {
				return nil, err
			}
			kind := KindAnd
			if tok == "OR" {
				kind = KindOr
			}
			stack = append(stack, &Node{Kind: kind, Left: left, Right: right})
		case "NOT":
			operand, err := pop()
			if err != nil {
				return nil, err
			}
			stack = append(stack, &Node{Kind: KindNot, Left: operand})
		default:
			stack = append(stack, &Node{Kind: KindTerm, Term: tok})
		}
	}

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %d dangling operands", ErrMalformedPostfix, len(stack))
	}
	return stack[0], nil
}

// Evaluator resolves an operator tree against a dictionary and its
// postings file.
type Evaluator struct {
	dict     *dictfile.Dictionary
	postings io.ReaderAt
}

// NewEvaluator binds a dictionary (which must be in ModeBoolean) to the
// postings file it was built from.
func NewEvaluator(dict *dictfile.Dictionary, postings io.ReaderAt) (*Evaluator, error) {
	if dict.Mode != dictfile.ModeBoolean {
		return nil, ErrNotBooleanMode
	}
	return &Evaluator{dict: dict, postings: postings}, nil
}

// Resolve evaluates the tree rooted at n into an ascending, deduplicated
// document-id list.
func (e *Evaluator) Resolve(n *Node) ([]int, error) {
	switch n.Kind {
	case KindTerm:
		return e.postingsFor(n.Term)
	case KindAnd:
		return e.resolveAnd(n)
	case KindOr:
		return e.resolveOr(n)
	case KindNot:
		return e.resolveNot(n)
	default:
		return nil, fmt.Errorf("boolean: unknown node kind %d", n.Kind)
	}
}

func (e *Evaluator) postingsFor(term string) ([]int, error) {
	entry, ok := e.dict.Terms[term]
	if !ok {
		return nil, nil
	}
	_, entries, err := codec.DecodeAll(e.postings, entry.Offset)
	if err != nil {
		return nil, fmt.Errorf("boolean: reading postings for %q: %w", term, err)
	}
	ids := make([]int, len(entries))
	for i, en := range entries {
		ids[i] = en.DocID
	}
	return ids, nil
}

func (e *Evaluator) resolveAnd(n *Node) ([]int, error) {
	operands := flatten(n, KindAnd)
	lists := make([][]int, len(operands))
	for i, op := range operands {
		list, err := e.Resolve(op)
		if err != nil {
			return nil, err
		}
		lists[i] = list
	}
	sort.Slice(lists, func(i, j int) bool { return len(lists[i]) < len(lists[j]) })

	if len(lists) == 0 {
		return nil, nil
	}
	acc := lists[0]
	for i := 1; i < len(lists) && len(acc) > 0; i++ {
		acc = intersectSorted(acc, lists[i])
	}
	return acc, nil
}

func (e *Evaluator) resolveOr(n *Node) ([]int, error) {
	operands := flatten(n, KindOr)
	lists := make([][]int, len(operands))
	for i, op := range operands {
		list, err := e.Resolve(op)
		if err != nil {
			return nil, err
		}
		lists[i] = list
	}
	if len(lists) == 0 {
		return nil, nil
	}
	acc := lists[0]
	for i := 1; i < len(lists); i++ {
		acc = unionSorted(acc, lists[i])
	}
	return acc, nil
}

func (e *Evaluator) resolveNot(n *Node) ([]int, error) {
	excluded, err := e.Resolve(n.Left)
	if err != nil {
		return nil, err
	}
	if e.dict.AllDocIDs == nil {
		return nil, fmt.Errorf("boolean: dictionary has no doc-id universe for NOT")
	}
	universe := e.dict.AllDocIDs.Clone()
	for _, id := range excluded {
		universe.Remove(uint32(id))
	}
	it := universe.Iterator()
	result := make([]int, 0, universe.GetCardinality())
	for it.HasNext() {
		result = append(result, int(it.Next()))
	}
	return result, nil
}

// flatten collects the leaves of a left-deep chain of same-kind binary
// nodes, so e.g. (a AND b) AND c flattens to [a, b, c] and all three can be
// sorted by resolved length together, the same breadth the original's
// n-ary And/Or classes got for free.
func flatten(n *Node, kind Kind) []*Node {
	if n.Kind != kind {
		return []*Node{n}
	}
	return append(flatten(n.Left, kind), flatten(n.Right, kind)...)
}

// intersectSorted merges two ascending document-id lists, skipping ahead by
// floor(sqrt(len)) in whichever list is behind when the jump cannot
// overshoot the other list's current value — the in-memory analogue of
// following the postings codec's skip pointers.
func intersectSorted(a, b []int) []int {
	var result []int
	i, j := 0, 0
	ka, kb := codec.SkipInterval(len(a)), codec.SkipInterval(len(b))
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			if ka > 1 && i+ka < len(a) && a[i+ka] <= b[j] {
				i += ka
			} else {
				i++
			}
		default:
			if kb > 1 && j+kb < len(b) && b[j+kb] <= a[i] {
				j += kb
			} else {
				j++
			}
		}
	}
	return result
}

// unionSorted merges two ascending document-id lists, deduplicating at
// equal values.
func unionSorted(a, b []int) []int {
	result := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			result = append(result, a[i])
			i++
			j++
		case a[i] < b[j]:
			result = append(result, a[i])
			i++
		default:
			result = append(result, b[j])
			j++
		}
	}
	result = append(result, a[i:]...)
	result = append(result, b[j:]...)
	return result
}
