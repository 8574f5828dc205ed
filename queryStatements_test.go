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
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

func TestNodeQueryDepth(t *testing.T) {
	g := NewGomegaWithT(t)
	statements := NewNodeQueryStatements("")

	query, err := statements.FindOne(int64(1), 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(query.Statement().Cypher).To(Equal("MATCH (n) WHERE ID(n) = $id RETURN n"))
	g.Expect(query.Statement().Parameters).To(Equal(map[string]any{"id": int64(1)}))

	query, _ = statements.FindOne(int64(1), 2)
	g.Expect(query.Statement().Cypher).To(Equal("MATCH (n) WHERE ID(n) = $id WITH n MATCH p=(n)-[*0..2]-(m) RETURN p, ID(n)"))

	query, _ = statements.FindAll([]int64{1, 2}, -1)
	g.Expect(query.Statement().Cypher).To(Equal("MATCH (n) WHERE ID(n) IN $ids WITH n MATCH p=(n)-[*0..]-(m) RETURN p, ID(n)"))

	query, _ = statements.FindAllByType("Person", []int64{3}, 0)
	g.Expect(query.Statement().Cypher).To(Equal("MATCH (n:`Person`) WHERE ID(n) IN $ids RETURN n"))
}

func TestNodeQueryByPrimaryIndex(t *testing.T) {
	g := NewGomegaWithT(t)

	query, err := NewNodeQueryStatements("title").FindOne("Matrix", 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(query.Statement().Cypher).To(Equal("MATCH (n) WHERE n.`title` = $id RETURN n"))
	g.Expect(query.Statement().Parameters).To(Equal(map[string]any{"id": "Matrix"}))
}

func TestNodeQuerySortsAndPagesBeforeTraversal(t *testing.T) {
	g := NewGomegaWithT(t)

	query, err := NewNodeQueryStatements("").FindByType("Person", 1)
	g.Expect(err).ToNot(HaveOccurred())
	query.SetSortOrder(NewSortOrder().Desc("age").Asc("name", "first name")).SetPagination(NewPagination(2, 10))

	g.Expect(query.Statement().Cypher).To(Equal(
		"MATCH (n:`Person`) WITH n ORDER BY n.age DESC, n.name, n.`first name` SKIP 20 LIMIT 10 MATCH p=(n)-[*0..1]-(m) RETURN p, ID(n)"))

	query, _ = NewNodeQueryStatements("").FindByType("Person", 0)
	query.SetPagination(NewPagination(0, 5))
	g.Expect(query.Statement().Cypher).To(Equal("MATCH (n:`Person`) WITH n SKIP 0 LIMIT 5 RETURN n"))
}

func TestFiltersCombineLeftToRight(t *testing.T) {
	g := NewGomegaWithT(t)

	filters := NewFilters(NewFilter("name", Equals, "Ann")).
		Or(NewFilter("age", GreaterThan, 30)).
		And(NewFilter("nickname", IsNull, nil).Not())
	g.Expect(filters[0].BooleanOperator).To(Equal(None))
	g.Expect(filters[1].BooleanOperator).To(Equal(OrOperator))
	g.Expect(filters[2].BooleanOperator).To(Equal(AndOperator))
	query, err := NewNodeQueryStatements("").FindByTypeAndFilters("Person", filters, 0)
	g.Expect(err).ToNot(HaveOccurred())

	statement := query.Statement()
	g.Expect(statement.Cypher).To(Equal("MATCH (n:`Person`) WHERE n.`name` = $name_0 OR n.`age` > $age_1 AND NOT(n.`nickname` IS NULL) RETURN n"))
	g.Expect(statement.Parameters).To(Equal(map[string]any{"name_0": "Ann", "age_1": 30}))
}

func TestFiltersRequireBooleanOperators(t *testing.T) {
	g := NewGomegaWithT(t)

	filters := Filters{NewFilter("name", Equals, "Ann"), NewFilter("age", Equals, 3)}
	_, err := NewNodeQueryStatements("").FindByTypeAndFilters("Person", filters, 0)
	g.Expect(errors.Is(err, ErrMissingOperator)).To(BeTrue())
}

func TestNestedFiltersGroupByPath(t *testing.T) {
	g := NewGomegaWithT(t)

	owns := NestedPath{PropertyName: "pet", Label: "Pet", RelationshipType: "OWNS", Direction: Outgoing}
	filters := NewFilters(NewFilter("name", Equals, "Ann")).
		And(NewFilter("name", StartingWith, "R").Through(owns)).
		And(NewFilter("age", LessThan, 5).Through(owns))

	query, err := NewNodeQueryStatements("").FindByTypeAndFilters("Person", filters, 0)
	g.Expect(err).ToNot(HaveOccurred())

	statement := query.Statement()
	g.Expect(statement.Cypher).To(Equal("MATCH (n:`Person`) WHERE n.`name` = $name_0 " +
		"MATCH (m0:`Pet`) WHERE m0.`name` STARTS WITH $pet_name_1 AND m0.`age` < $pet_age_2 " +
		"MATCH (n)-[:`OWNS`]->(m0) WITH DISTINCT n RETURN n"))
	g.Expect(statement.Parameters).To(Equal(map[string]any{"name_0": "Ann", "pet_name_1": "R", "pet_age_2": 5}))
}

func TestNestedRelationshipEntityFilter(t *testing.T) {
	g := NewGomegaWithT(t)

	roles := NestedPath{PropertyName: "roles", RelationshipType: "ACTED_IN", Direction: Outgoing, RelationshipEntity: true}
	filters := NewFilters(NewFilter("role", Equals, "Neo").Through(roles))

	query, err := NewNodeQueryStatements("").FindByTypeAndFilters("Person", filters, 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(query.Statement().Cypher).To(Equal("MATCH (n:`Person`) MATCH (n)-[r0:`ACTED_IN`]->(m0) WHERE r0.`role` = $roles_role_0 WITH DISTINCT n RETURN n"))
}

func TestUnsupportedOrFilters(t *testing.T) {
	g := NewGomegaWithT(t)

	owns := NestedPath{PropertyName: "pet", Label: "Pet", RelationshipType: "OWNS", Direction: Outgoing}

	filters := NewFilters(NewFilter("name", Equals, "Ann")).Or(NewFilter("name", Equals, "Rex").Through(owns))
	_, err := NewNodeQueryStatements("").FindByTypeAndFilters("Person", filters, 0)
	g.Expect(errors.Is(err, ErrUnsupportedOperation)).To(BeTrue())

	filters = NewFilters(NewFilter("name", Equals, "Rex").Through(owns)).Or(NewFilter("name", Equals, "Ann"))
	_, err = NewNodeQueryStatements("").FindByTypeAndFilters("Person", filters, 0)
	g.Expect(errors.Is(err, ErrUnsupportedOperation)).To(BeTrue())
}

func TestFilterValueTransformations(t *testing.T) {
	g := NewGomegaWithT(t)

	like := NewFilter("name", Like, "a.b*")
	expression, parameters := like.predicate("n", like.parameterName(0))
	g.Expect(expression).To(Equal("n.`name` =~ $name_0"))
	g.Expect(parameters).To(Equal(map[string]any{"name_0": `(?i)a\.b.*`}))

	leading := NewFilter("name", Like, "*nia")
	_, parameters = leading.predicate("n", leading.parameterName(0))
	g.Expect(parameters).To(Equal(map[string]any{"name_0": "(?i).*nia"}))

	near := NewDistanceFilter(LessThan, DistanceComparison{Latitude: 1, Longitude: 2, Distance: 100})
	expression, parameters = near.predicate("n", near.parameterName(3))
	g.Expect(expression).To(Equal("distance(point(n),point({latitude: $distance_3_latitude, longitude: $distance_3_longitude})) < $distance_3"))
	g.Expect(parameters).To(Equal(map[string]any{"distance_3_latitude": 1.0, "distance_3_longitude": 2.0, "distance_3": 100.0}))

	exists := NewFilter("home address", Exists, nil)
	g.Expect(exists.parameterName(1)).To(Equal("home_address_1"))
	expression, _ = exists.predicate("n", exists.parameterName(1))
	g.Expect(expression).To(Equal("EXISTS(n.`home address`)"))
}

func TestRelationshipQueries(t *testing.T) {
	g := NewGomegaWithT(t)
	statements := NewRelationshipQueryStatements()

	_, err := statements.FindOne(int64(1), 0)
	g.Expect(errors.Is(err, ErrInvalidDepth)).To(BeTrue())

	_, err = statements.FindByTypeAndFilters("ACTED_IN", nil, 0)
	g.Expect(errors.Is(err, ErrInvalidDepth)).To(BeTrue())

	query, err := statements.FindOne(int64(1), 1)
	g.Expect(err).ToNot(HaveOccurred())
	cypher := query.Statement().Cypher
	g.Expect(cypher).To(HavePrefix("MATCH ()-[r]->() WHERE ID(r) = $id WITH r,STARTNODE(r) AS n, ENDNODE(r) AS m"))
	g.Expect(cypher).To(ContainSubstring("MATCH p1 = (n)-[*0..1]-()"))
	g.Expect(cypher).To(HaveSuffix("UNWIND paths AS p RETURN DISTINCT p, rId"))

	filters := NewFilters(NewFilter("role", Equals, "Neo")).
		And(NewFilter("name", Equals, "Keanu").Through(NestedPath{Label: "Person", Direction: Outgoing})).
		And(NewFilter("title", Equals, "Matrix").Through(NestedPath{Label: "Movie", Direction: Incoming}))
	query, err = statements.FindByTypeAndFilters("ACTED_IN", filters, 1)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(query.Statement().Cypher).To(HavePrefix(
		"MATCH (n:`Person`) WHERE n.`name` = $_name_1 MATCH (m:`Movie`) WHERE m.`title` = $_title_2 " +
			"MATCH (n)-[r:`ACTED_IN`]->(m) WHERE r.`role` = $role_0 WITH r,STARTNODE(r)"))
}
