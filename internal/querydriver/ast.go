package querydriver

import (
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/amanmcp/internal/errors"
)

// astNode mirrors just enough of bleve's query.Query shape to build
// our own operator tree from it afterward: a boolean AND/OR structure
// over term and phrase leaves. The core never asks bleve to score or
// execute anything — parsing the query string into this shape is the
// entire extent of the dependency (spec §6: "the query driver accepts
// a tree built by an external parser").
type astNode struct {
	op       astOp
	term     string   // set when op == astTerm
	phrase   []string // set when op == astPhrase
	children []*astNode
}

type astOp int

const (
	astTerm astOp = iota
	astPhrase
	astAnd
	astOr
)

// parseQueryString bridges bleve's query-string grammar into astNode,
// flattening every query kind the grammar can produce into AND/OR/
// term/phrase — the four shapes our operator package implements.
func parseQueryString(q string) (*astNode, error) {
	parsed, err := query.NewQueryStringQuery(q).Parse()
	if err != nil {
		return nil, errors.SyntaxError("invalid query syntax: "+err.Error(), err)
	}
	node, err := convert(parsed)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, errors.SyntaxError("query matched no terms", nil)
	}
	return node, nil
}

func convert(q query.Query) (*astNode, error) {
	switch v := q.(type) {
	case *query.ConjunctionQuery:
		return convertJunction(astAnd, v.Conjuncts)
	case *query.DisjunctionQuery:
		return convertJunction(astOr, v.Disjuncts)
	case *query.BooleanQuery:
		var parts []*astNode
		if v.Must != nil {
			n, err := convert(v.Must)
			if err != nil {
				return nil, err
			}
			if n != nil {
				parts = append(parts, n)
			}
		}
		if v.Should != nil {
			n, err := convert(v.Should)
			if err != nil {
				return nil, err
			}
			if n != nil {
				parts = append(parts, n)
			}
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return &astNode{op: astAnd, children: parts}, nil
	case *query.TermQuery:
		return &astNode{op: astTerm, term: v.Term}, nil
	case *query.MatchQuery:
		return &astNode{op: astTerm, term: v.Match}, nil
	case *query.MatchPhraseQuery:
		return &astNode{op: astPhrase, phrase: splitWords(v.MatchPhrase)}, nil
	case *query.PhraseQuery:
		return &astNode{op: astPhrase, phrase: v.Terms}, nil
	default:
		return nil, errors.SyntaxError("unsupported query clause", nil)
	}
}

func convertJunction(op astOp, clauses []query.Query) (*astNode, error) {
	var children []*astNode
	for _, c := range clauses {
		n, err := convert(c)
		if err != nil {
			return nil, err
		}
		if n != nil {
			children = append(children, n)
		}
	}
	if len(children) == 0 {
		return nil, nil
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &astNode{op: op, children: children}, nil
}

func splitWords(phrase string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range phrase {
		if r == ' ' || r == '\t' || r == '\n' {
			flush()
			continue
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// leaves collects every distinct term name (the words of a phrase
// counting individually) referenced anywhere in the tree, so the
// driver can resolve them all in one fanned-out pass before building
// the actual operator.List tree.
func (n *astNode) leaves(into map[string]struct{}) {
	switch n.op {
	case astTerm:
		into[n.term] = struct{}{}
	case astPhrase:
		for _, w := range n.phrase {
			into[w] = struct{}{}
		}
	default:
		for _, c := range n.children {
			c.leaves(into)
		}
	}
}
