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

//QueryStatements builds the read statements for one kind of entity.
type QueryStatements interface {
	FindOne(id any, depth int) (*PagingAndSortingQuery, error)
	FindAll(ids []int64, depth int) (*PagingAndSortingQuery, error)
	FindAllByType(typ string, ids []int64, depth int) (*PagingAndSortingQuery, error)
	FindByType(typ string, depth int) (*PagingAndSortingQuery, error)
	FindByTypeAndFilters(typ string, filters Filters, depth int) (*PagingAndSortingQuery, error)
}

//PagingAndSortingQuery is a read statement that still accepts a sort order and a page.
type PagingAndSortingQuery struct {
	match      string
	identifier string
	distinct   bool
	//withRequired is set when the return clause must be preceded by WITH <identifier>.
	withRequired bool
	returnClause string
	parameters   map[string]any
	sortOrder    *SortOrder
	pagination   *Pagination
}

func (q *PagingAndSortingQuery) SetSortOrder(sortOrder *SortOrder) *PagingAndSortingQuery {
	q.sortOrder = sortOrder
	return q
}

func (q *PagingAndSortingQuery) SetPagination(pagination *Pagination) *PagingAndSortingQuery {
	q.pagination = pagination
	return q
}

//Statement renders the match, then sort and page, then the traversal and return clause.
func (q *PagingAndSortingQuery) Statement() Statement {
	parts := []string{q.match}

	var modifiers []string
	if !q.sortOrder.empty() {
		modifiers = append(modifiers, q.sortOrder.cypher(q.identifier))
	}
	if q.pagination != nil {
		modifiers = append(modifiers, q.pagination.cypher())
	}

	if q.distinct {
		parts = append(parts, "WITH DISTINCT "+q.identifier)
	} else if q.withRequired || len(modifiers) > 0 {
		parts = append(parts, "WITH "+q.identifier)
	}
	parts = append(parts, modifiers...)
	parts = append(parts, q.returnClause)

	parameters := q.parameters
	if parameters == nil {
		parameters = map[string]any{}
	}
	return Statement{Cypher: strings.Join(parts, " "), Parameters: parameters}
}

//variableLength renders the path length of a traversal of depth hops, unbounded when negative.
func variableLength(depth int) string {
	if depth < 0 {
		return "*0.."
	}
	return "*0.." + strconv.Itoa(depth)
}

//NodeQueryStatements builds node reads. With a PrimaryIndex, FindOne looks nodes up by that
//property instead of the native id.
type NodeQueryStatements struct {
	PrimaryIndex string
}

func NewNodeQueryStatements(primaryIndex string) *NodeQueryStatements {
	return &NodeQueryStatements{PrimaryIndex: primaryIndex}
}

func (s *NodeQueryStatements) query(match string, parameters map[string]any, depth int) *PagingAndSortingQuery {
	q := &PagingAndSortingQuery{match: match, identifier: "n", parameters: parameters, returnClause: "RETURN n"}
	if depth != 0 {
		q.withRequired = true
		q.returnClause = "MATCH p=(n)-[" + variableLength(depth) + "]-(m) RETURN p, ID(n)"
	}
	return q
}

func (s *NodeQueryStatements) FindOne(id any, depth int) (*PagingAndSortingQuery, error) {
	match := "MATCH (n) WHERE ID(n) = $id"
	if s.PrimaryIndex != "" {
		match = "MATCH (n) WHERE n." + quote(s.PrimaryIndex) + " = $id"
	}
	return s.query(match, map[string]any{"id": id}, depth), nil
}

func (s *NodeQueryStatements) FindAll(ids []int64, depth int) (*PagingAndSortingQuery, error) {
	return s.query("MATCH (n) WHERE ID(n) IN $ids", map[string]any{"ids": ids}, depth), nil
}

func (s *NodeQueryStatements) FindAllByType(label string, ids []int64, depth int) (*PagingAndSortingQuery, error) {
	return s.query("MATCH (n:"+quote(label)+") WHERE ID(n) IN $ids", map[string]any{"ids": ids}, depth), nil
}

func (s *NodeQueryStatements) FindByType(label string, depth int) (*PagingAndSortingQuery, error) {
	return s.query("MATCH (n:"+quote(label)+")", nil, depth), nil
}

func (s *NodeQueryStatements) FindByTypeAndFilters(label string, filters Filters, depth int) (*PagingAndSortingQuery, error) {
	filtered, err := buildNodeQuery(label, filters)
	if err != nil {
		return nil, err
	}
	q := s.query(filtered.cypher, filtered.parameters, depth)
	q.distinct = filtered.distinct
	return q, nil
}

//FindAllPaths reads every relationship with both of its nodes.
func (s *NodeQueryStatements) FindAllPaths() *PagingAndSortingQuery {
	return &PagingAndSortingQuery{match: "MATCH p=()-->()", identifier: "p", returnClause: "RETURN p"}
}

//RelationshipQueryStatements builds reads anchored on relationships. Such a read always needs
//the start and end nodes, so a depth below 1 is rejected.
type RelationshipQueryStatements struct{}

func NewRelationshipQueryStatements() *RelationshipQueryStatements {
	return &RelationshipQueryStatements{}
}

func (s *RelationshipQueryStatements) query(match string, parameters map[string]any, depth int) (*PagingAndSortingQuery, error) {
	if depth <= 0 {
		return nil, invalidDepth("cannot load a relationship entity with depth %d, its start and end nodes need depth 1 or more", depth)
	}
	length := variableLength(depth)
	return &PagingAndSortingQuery{
		match:      match,
		identifier: "r",
		parameters: parameters,
		returnClause: "WITH r,STARTNODE(r) AS n, ENDNODE(r) AS m " +
			"MATCH p1 = (n)-[" + length + "]-() WITH r, COLLECT(DISTINCT p1) AS startPaths, m " +
			"MATCH p2 = (m)-[" + length + "]-() WITH r, startPaths, COLLECT(DISTINCT p2) AS endPaths " +
			"WITH ID(r) AS rId,startPaths + endPaths AS paths " +
			"UNWIND paths AS p RETURN DISTINCT p, rId",
	}, nil
}

func (s *RelationshipQueryStatements) FindOne(id any, depth int) (*PagingAndSortingQuery, error) {
	return s.query("MATCH ()-[r]->() WHERE ID(r) = $id", map[string]any{"id": id}, depth)
}

func (s *RelationshipQueryStatements) FindAll(ids []int64, depth int) (*PagingAndSortingQuery, error) {
	return s.query("MATCH ()-[r]->() WHERE ID(r) IN $ids", map[string]any{"ids": ids}, depth)
}

func (s *RelationshipQueryStatements) FindAllByType(relationshipType string, ids []int64, depth int) (*PagingAndSortingQuery, error) {
	return s.query("MATCH ()-[r:"+quote(relationshipType)+"]->() WHERE ID(r) IN $ids", map[string]any{"ids": ids}, depth)
}

func (s *RelationshipQueryStatements) FindByType(relationshipType string, depth int) (*PagingAndSortingQuery, error) {
	return s.query("MATCH ()-[r:"+quote(relationshipType)+"]->()", nil, depth)
}

func (s *RelationshipQueryStatements) FindByTypeAndFilters(relationshipType string, filters Filters, depth int) (*PagingAndSortingQuery, error) {
	if depth <= 0 {
		return nil, invalidDepth("cannot load a relationship entity with depth %d, its start and end nodes need depth 1 or more", depth)
	}
	filtered, err := buildRelationshipQuery(relationshipType, filters)
	if err != nil {
		return nil, err
	}
	return s.query(filtered.cypher, filtered.parameters, depth)
}
