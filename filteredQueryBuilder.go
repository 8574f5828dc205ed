// MIT License
//
// Copyright (c) 2020 codingfinest
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package gogm

import (
	"strconv"
	"strings"
)

type filteredQuery struct {
	cypher     string
	parameters map[string]any
	//distinct is set when relationship matches may return the principal entity more than once.
	distinct bool
}

type matchClause struct {
	head       string
	identifier string
	body       strings.Builder
	conditions int
}

func newMatchClause(head string, identifier string) *matchClause {
	return &matchClause{head: head, identifier: identifier}
}

func (c *matchClause) append(f *Filter, index int, parameters map[string]any) error {
	if f.BooleanOperator == OrOperator && c.conditions == 0 && index > 0 {
		return unsupportedOperation("OR on %q has no preceding filter on the same entity to combine with", f.PropertyName)
	}
	expression, bound := f.predicate(c.identifier, f.parameterName(index))
	if c.conditions == 0 {
		c.body.WriteString(" WHERE " + expression)
	} else {
		c.body.WriteString(" " + f.BooleanOperator.cypher() + " " + expression)
	}
	c.conditions++
	for name, value := range bound {
		parameters[name] = value
	}
	return nil
}

func (c *matchClause) cypher() string {
	return c.head + c.body.String()
}

func checkOperator(f *Filter, index int) error {
	if index > 0 && f.BooleanOperator == None {
		return missingOperator("filter on %q needs a boolean operator, only the first filter may omit it", f.PropertyName)
	}
	if f.isNested() && f.BooleanOperator == OrOperator {
		return unsupportedOperation("OR is not supported for nested filter on %q", f.PropertyName)
	}
	return nil
}

//pathPattern renders (from)-[rel:`TYPE`]->(to) in the given direction.
func pathPattern(from string, rel string, relationshipType string, direction Direction, to string) string {
	left, right := "-", "-"
	switch direction {
	case Incoming:
		left = "<-"
	case Undirected:
	default:
		right = "->"
	}
	return "(" + from + ")" + left + "[" + rel + ":" + quote(relationshipType) + "]" + right + "(" + to + ")"
}

func nestedPathKey(path *NestedPath) string {
	return path.RelationshipType + "|" + string(path.Direction) + "|" + path.Label
}

//buildNodeQuery renders the match and where clauses selecting nodes labeled label. Filters on
//the principal node share its clause; filters through the same nested path share one clause.
func buildNodeQuery(label string, filters Filters) (*filteredQuery, error) {
	var (
		principal     = newMatchClause("MATCH (n:"+quote(label)+")", "n")
		nested        []*matchClause
		paths         []string
		nodeClauses   = map[string]*matchClause{}
		entityClauses = map[string]*matchClause{}
		parameters    = map[string]any{}
		clauseID      = 0
	)

	for i, f := range filters {
		if err := checkOperator(f, i); err != nil {
			return nil, err
		}

		clause := principal
		if f.isNested() {
			key := nestedPathKey(f.Nested)
			if f.Nested.RelationshipEntity {
				if clause = entityClauses[key]; clause == nil {
					id := strconv.Itoa(clauseID)
					clause = newMatchClause("MATCH "+pathPattern("n", "r"+id, f.Nested.RelationshipType, f.Nested.Direction, "m"+id), "r"+id)
					entityClauses[key] = clause
					nested = append(nested, clause)
					clauseID++
				}
			} else {
				if clause = nodeClauses[key]; clause == nil {
					id := strconv.Itoa(clauseID)
					clause = newMatchClause("MATCH (m"+id+":"+quote(f.Nested.Label)+")", "m"+id)
					nodeClauses[key] = clause
					nested = append(nested, clause)
					paths = append(paths, "MATCH "+pathPattern("n", "", f.Nested.RelationshipType, f.Nested.Direction, "m"+id))
					clauseID++
				}
			}
		}

		if err := clause.append(f, i, parameters); err != nil {
			return nil, err
		}
	}

	parts := []string{principal.cypher()}
	for _, clause := range nested {
		parts = append(parts, clause.cypher())
	}
	parts = append(parts, paths...)

	return &filteredQuery{
		cypher:     strings.Join(parts, " "),
		parameters: parameters,
		distinct:   len(nested) > 0,
	}, nil
}

//buildRelationshipQuery renders the clauses selecting relationships of relationshipType.
//Nested OUTGOING filters apply to the start node, nested INCOMING filters to the end node and
//plain filters to the relationship itself.
func buildRelationshipQuery(relationshipType string, filters Filters) (*filteredQuery, error) {
	var (
		start, end   *matchClause
		relationship = newMatchClause("MATCH (n)-[r:"+quote(relationshipType)+"]->(m)", "r")
		parameters   = map[string]any{}
	)

	for i, f := range filters {
		if err := checkOperator(f, i); err != nil {
			return nil, err
		}

		clause := relationship
		if f.isNested() {
			if f.Nested.Direction == Incoming {
				if end == nil {
					end = newMatchClause("MATCH (m:"+quote(f.Nested.Label)+")", "m")
				}
				clause = end
			} else {
				if start == nil {
					start = newMatchClause("MATCH (n:"+quote(f.Nested.Label)+")", "n")
				}
				clause = start
			}
		}

		if err := clause.append(f, i, parameters); err != nil {
			return nil, err
		}
	}

	var parts []string
	for _, clause := range []*matchClause{start, end, relationship} {
		if clause != nil {
			parts = append(parts, clause.cypher())
		}
	}
	return &filteredQuery{cypher: strings.Join(parts, " "), parameters: parameters}, nil
}
