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

//DeleteStatements builds the delete statements for one kind of entity.
type DeleteStatements interface {
	Delete(id int64) Statement
	DeleteAll(ids []int64) Statement
	DeleteByType(typ string) Statement
	DeleteByTypeAndFilters(typ string, filters Filters) (Statement, error)
}

//NodeDeleteStatements deletes nodes together with their relationships.
type NodeDeleteStatements struct{}

func (NodeDeleteStatements) Delete(id int64) Statement {
	return Statement{"MATCH (n) WHERE ID(n) = $id DETACH DELETE n", map[string]any{"id": id}}
}

func (NodeDeleteStatements) DeleteAll(ids []int64) Statement {
	return Statement{"MATCH (n) WHERE ID(n) IN $ids DETACH DELETE n", map[string]any{"ids": ids}}
}

func (NodeDeleteStatements) DeleteByType(label string) Statement {
	return Statement{"MATCH (n:" + quote(label) + ") DETACH DELETE n", map[string]any{}}
}

func (NodeDeleteStatements) DeleteByTypeAndFilters(label string, filters Filters) (Statement, error) {
	filtered, err := buildNodeQuery(label, filters)
	if err != nil {
		return Statement{}, err
	}
	return Statement{filtered.cypher + withNode(filtered) + " DETACH DELETE n", filtered.parameters}, nil
}

//Purge deletes every node and relationship in the database.
func (NodeDeleteStatements) Purge() Statement {
	return Statement{"MATCH (n) DETACH DELETE n", map[string]any{}}
}

type RelationshipDeleteStatements struct{}

func (RelationshipDeleteStatements) Delete(id int64) Statement {
	return Statement{"MATCH ()-[r]->() WHERE ID(r) = $id DELETE r", map[string]any{"id": id}}
}

func (RelationshipDeleteStatements) DeleteAll(ids []int64) Statement {
	return Statement{"MATCH ()-[r]->() WHERE ID(r) IN $ids DELETE r", map[string]any{"ids": ids}}
}

func (RelationshipDeleteStatements) DeleteByType(relationshipType string) Statement {
	return Statement{"MATCH ()-[r:" + quote(relationshipType) + "]->() DELETE r", map[string]any{}}
}

func (RelationshipDeleteStatements) DeleteByTypeAndFilters(relationshipType string, filters Filters) (Statement, error) {
	filtered, err := buildRelationshipQuery(relationshipType, filters)
	if err != nil {
		return Statement{}, err
	}
	return Statement{filtered.cypher + " DELETE r", filtered.parameters}, nil
}

//CountStatements builds statements returning a single count column.
type CountStatements struct{}

func (CountStatements) CountNodes(labels ...string) Statement {
	match := "MATCH (n)"
	if len(labels) > 0 {
		match = "MATCH (n:" + labelSignature(labels) + ")"
	}
	return Statement{match + " RETURN COUNT(n)", map[string]any{}}
}

func (CountStatements) CountEdges(relationshipType string) Statement {
	return Statement{"MATCH ()-[r:" + quote(relationshipType) + "]->() RETURN COUNT(r)", map[string]any{}}
}

func (CountStatements) CountNodesWithFilters(label string, filters Filters) (Statement, error) {
	filtered, err := buildNodeQuery(label, filters)
	if err != nil {
		return Statement{}, err
	}
	return Statement{filtered.cypher + withNode(filtered) + " RETURN COUNT(n)", filtered.parameters}, nil
}

func withNode(filtered *filteredQuery) string {
	if filtered.distinct {
		return " WITH DISTINCT n"
	}
	return " WITH n"
}
