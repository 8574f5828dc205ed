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

	"github.com/google/uuid"
	. "github.com/onsi/gomega"
)

func TestCompileNewGraph(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	bob := &Person{Name: "Bob"}
	ann := &Person{Name: "Ann", Age: 30, Friends: []*Person{bob}}

	result, err := Compile(ann, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(result.CreateNodeBatches).To(HaveLen(1))
	nodes := result.CreateNodeBatches[0]
	g.Expect(nodes.Key).To(Equal("`Person`"))
	g.Expect(nodes.Cypher).To(Equal("UNWIND $rows as row CREATE (n:`Person`) SET n=row.props RETURN row.nodeRef as ref, ID(n) as id, $type as type"))
	g.Expect(nodes.Rows).To(Equal([]map[string]any{
		{nodeRefKey: int64(-1), propsKey: map[string]any{"name": "Ann", "age": 30}},
		{nodeRefKey: int64(-2), propsKey: map[string]any{"name": "Bob", "age": 0}},
	}))

	g.Expect(result.CreateRelationshipBatches).To(HaveLen(1))
	relationships := result.CreateRelationshipBatches[0]
	g.Expect(relationships.Key).To(Equal("FRIEND"))
	g.Expect(relationships.Cypher).To(ContainSubstring("MERGE (startNode)-[rel:`FRIEND`]->(endNode)"))
	g.Expect(relationships.Rows).To(Equal([]map[string]any{
		{startNodeIDKey: int64(-1), endNodeIDKey: int64(-2), relRefKey: int64(-3)},
	}))

	g.Expect(result.DependentOnNewNodes()).To(BeTrue())
	g.Expect(result.UpdateNodeBatches).To(BeEmpty())
	g.Expect(result.DeleteRelationshipBatches).To(BeEmpty())

	statement := nodes.Statement()
	g.Expect(statement.Parameters[typeParameter]).To(Equal("node"))
	g.Expect(statement.Parameters[rowsParameter]).To(HaveLen(2))

	g.Expect(result.ResolveNewNodeIDs(map[int64]int64{-1: 10, -2: 11})).To(Succeed())
	g.Expect(relationships.Rows[0][startNodeIDKey]).To(Equal(int64(10)))
	g.Expect(relationships.Rows[0][endNodeIDKey]).To(Equal(int64(11)))
	g.Expect(result.DependentOnNewNodes()).To(BeFalse())
}

func TestCompileBatchesRowsPerLabelSignature(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	root := &Person{Name: "root"}
	for i := 0; i < 5; i++ {
		root.Friends = append(root.Friends, &Person{Age: i})
	}
	root.Pet = &Pet{Name: "Rex"}

	result, err := Compile(root, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(result.CreateNodeBatches).To(HaveLen(2))
	g.Expect(result.CreateNodeBatches[0].Rows).To(HaveLen(6))
	g.Expect(result.CreateNodeBatches[1].Key).To(Equal("`Pet`"))
	g.Expect(result.CreateRelationshipBatches).To(HaveLen(2))
	g.Expect(result.CreateRelationshipBatches[0].Rows).To(HaveLen(5))
	g.Expect(result.CreateRelationshipBatches[1].Key).To(Equal("OWNS"))
}

func TestCompileTerminatesOnCycles(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	ann, bob := &Person{Name: "Ann"}, &Person{Name: "Bob"}
	ann.Friends = []*Person{bob}
	bob.Friends = []*Person{ann}

	result, err := Compile(ann, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.CreateNodeBatches[0].Rows).To(HaveLen(2))
	g.Expect(result.CreateRelationshipBatches[0].Rows).To(HaveLen(2))
}

func TestCompileDeduplicatesUndirectedRelationships(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	ann, bob := &Person{Name: "Ann"}, &Person{Name: "Bob"}
	ann.Knows = []*Person{bob}
	bob.Knows = []*Person{ann}

	result, err := Compile(ann, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.CreateRelationshipBatches).To(HaveLen(1))
	g.Expect(result.CreateRelationshipBatches[0].Key).To(Equal("KNOWS"))
	g.Expect(result.CreateRelationshipBatches[0].Rows).To(HaveLen(1))
}

func TestCompileHonorsIncomingDirection(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	rex := &Pet{Name: "Rex", Owner: &Person{Name: "Ann"}}

	result, err := Compile(rex, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.CreateRelationshipBatches).To(HaveLen(1))
	row := result.CreateRelationshipBatches[0].Rows[0]
	g.Expect(row[startNodeIDKey]).To(Equal(int64(-2)), "the owner starts the relationship")
	g.Expect(row[endNodeIDKey]).To(Equal(int64(-1)))
}

func TestCompileStopsAtDepth(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	carl := &Person{Name: "Carl"}
	bob := &Person{Name: "Bob", Friends: []*Person{carl}}
	ann := &Person{Name: "Ann", Friends: []*Person{bob}}
	compiler := NewCompiler(registry)

	result, err := compiler.Compile(ann, NewMappingContext(registry), 0)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.CreateNodeBatches[0].Rows).To(HaveLen(1))
	g.Expect(result.CreateRelationshipBatches).To(BeEmpty())

	result, err = compiler.Compile(ann, NewMappingContext(registry), 1)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.CreateNodeBatches[0].Rows).To(HaveLen(2))
	g.Expect(result.CreateRelationshipBatches[0].Rows).To(HaveLen(1))
}

func TestCompileRegisteredGraph(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()
	context := NewMappingContext(registry)

	bob := &Person{Name: "Bob"}
	ann := &Person{Name: "Ann", Friends: []*Person{bob}}
	g.Expect(context.RegisterNode(ann, 1)).To(Succeed())
	g.Expect(context.RegisterNode(bob, 2)).To(Succeed())
	context.RegisterRelationship(NewMappedRelationship(1, "FRIEND", 2))

	result, err := Compile(ann, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Empty()).To(BeTrue())
	result, err = Compile(ann, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Empty()).To(BeTrue(), "compiling an unchanged graph again stays empty")

	bob.Age = 40
	result, err = Compile(ann, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.UpdateNodeBatches).To(HaveLen(1))
	g.Expect(result.UpdateNodeBatches[0].Cypher).To(Equal("UNWIND $rows as row MATCH (n) WHERE ID(n)=row.nodeId SET n:`Person` SET n += row.props RETURN row.nodeId as ref, ID(n) as id, $type as type"))
	g.Expect(result.UpdateNodeBatches[0].Rows).To(Equal([]map[string]any{
		{nodeIDKey: int64(2), propsKey: map[string]any{"name": "Bob", "age": 40}},
	}))

	ann.Friends = nil
	result, err = Compile(ann, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.DeleteRelationshipBatches).To(HaveLen(1))
	g.Expect(result.DeleteRelationshipBatches[0].Rows).To(Equal([]map[string]any{
		{startNodeIDKey: int64(1), endNodeIDKey: int64(2)},
	}))
	g.Expect(result.DeletedRelationships()).To(Equal([]MappedRelationship{NewMappedRelationship(1, "FRIEND", 2)}))
	g.Expect(context.ContainsRelationship(NewMappedRelationship(1, "FRIEND", 2))).To(BeTrue(), "compiling never changes the context")
}

func TestCompileDeletesOnlyTheRemovedRelationship(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()
	context := NewMappingContext(registry)

	bob, carl := &Person{Name: "Bob"}, &Person{Name: "Carl"}
	ann := &Person{Name: "Ann", Friends: []*Person{bob, carl}}
	g.Expect(context.RegisterNode(ann, 1)).To(Succeed())
	g.Expect(context.RegisterNode(bob, 2)).To(Succeed())
	g.Expect(context.RegisterNode(carl, 3)).To(Succeed())
	context.RegisterRelationship(NewMappedRelationship(1, "FRIEND", 2))
	context.RegisterRelationship(NewMappedRelationship(1, "FRIEND", 3))

	ann.Friends = []*Person{bob}
	result, err := Compile(ann, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Statements()).To(HaveLen(1))
	g.Expect(result.DeleteRelationshipBatches).To(HaveLen(1))
	g.Expect(result.DeleteRelationshipBatches[0].Rows).To(Equal([]map[string]any{
		{startNodeIDKey: int64(1), endNodeIDKey: int64(3)},
	}))
	g.Expect(result.DeletedRelationships()).To(Equal([]MappedRelationship{NewMappedRelationship(1, "FRIEND", 3)}))
}

func TestCompileLeavesOtherSideOfUntraversedRelationship(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()
	context := NewMappingContext(registry)

	ann, bob := &Person{Name: "Ann"}, &Person{Name: "Bob"}
	g.Expect(context.RegisterNode(ann, 1)).To(Succeed())
	g.Expect(context.RegisterNode(bob, 2)).To(Succeed())
	context.RegisterRelationship(NewMappedRelationship(1, "FRIEND", 2))

	result, err := Compile(bob, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Empty()).To(BeTrue(), "an incoming FRIEND is not owned by the Friends field")
}

func TestCompileRelationshipEntities(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	keanu := &Person{Name: "Keanu"}
	matrix := &Movie{Title: "Matrix", Released: 1999}
	role := &ActedIn{Role: "Neo", Actor: keanu, Movie: matrix}
	keanu.Roles = []*ActedIn{role}
	matrix.Cast = []*ActedIn{role}

	result, err := Compile(keanu, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())

	g.Expect(result.CreateNodeBatches).To(HaveLen(2))
	movies := result.CreateNodeBatches[1]
	g.Expect(movies.Key).To(Equal("`Movie`{title}"))
	g.Expect(movies.Cypher).To(ContainSubstring("MERGE (n:`Movie` {`title`: row.props.`title`})"))

	g.Expect(result.CreateRelationshipBatches).To(HaveLen(1))
	relationships := result.CreateRelationshipBatches[0]
	g.Expect(relationships.Key).To(Equal("ACTED_IN{entity}"))
	g.Expect(relationships.Cypher).To(ContainSubstring("CREATE (startNode)-[rel:`ACTED_IN`]->(endNode) SET rel += row.props"))
	g.Expect(relationships.Rows).To(Equal([]map[string]any{{
		startNodeIDKey: int64(-1),
		endNodeIDKey:   int64(-2),
		relRefKey:      int64(-3),
		propsKey:       map[string]any{"role": "Neo"},
	}}))

	object, ok := result.NewObject(-3)
	g.Expect(ok).To(BeTrue())
	g.Expect(object).To(BeIdenticalTo(role))

	fromMovie, err := Compile(matrix, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(fromMovie.CreateRelationshipBatches[0].Rows[0][startNodeIDKey]).To(Equal(int64(-2)), "the actor starts ACTED_IN whichever side is saved")
	g.Expect(fromMovie.CreateRelationshipBatches[0].Rows[0][endNodeIDKey]).To(Equal(int64(-1)))
}

func TestCompileUpdatesRegisteredRelationshipEntity(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()
	context := NewMappingContext(registry)

	keanu := &Person{Name: "Keanu"}
	matrix := &Movie{Title: "Matrix"}
	role := &ActedIn{Role: "Neo", Actor: keanu, Movie: matrix}
	keanu.Roles = []*ActedIn{role}
	g.Expect(context.RegisterNode(keanu, 1)).To(Succeed())
	g.Expect(context.RegisterNode(matrix, 2)).To(Succeed())
	g.Expect(context.RegisterRelationshipEntity(role, 5)).To(Succeed())
	context.RegisterRelationship(NewMappedRelationship(1, "ACTED_IN", 2).WithRelationshipID(5))

	result, err := Compile(keanu, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Empty()).To(BeTrue())

	role.Role = "The One"
	result, err = Compile(keanu, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.UpdateRelationshipBatches).To(HaveLen(1))
	g.Expect(result.UpdateRelationshipBatches[0].Rows).To(Equal([]map[string]any{
		{relIDKey: int64(5), propsKey: map[string]any{"role": "The One"}},
	}))

	keanu.Roles = nil
	result, err = Compile(keanu, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.DeleteRelationshipBatches).To(HaveLen(1))
	g.Expect(result.DeleteRelationshipBatches[0].Rows).To(Equal([]map[string]any{{relIDKey: int64(5)}}))
}

func TestCompileGeneratesKeys(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()

	tag := &Tag{Labels: []string{"Hot"}}
	result, err := Compile(tag, NewMappingContext(registry), registry)
	g.Expect(err).ToNot(HaveOccurred())

	batch := result.CreateNodeBatches[0]
	g.Expect(batch.Key).To(Equal("`Tag`:`Hot`{key}"))
	key := batch.Rows[0][propsKey].(map[string]any)["key"].(string)
	_, err = uuid.Parse(key)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(tag.Key).To(BeEmpty(), "the key is written back only once saved")
}

func TestCompileRemovesDroppedLabels(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()
	context := NewMappingContext(registry)

	tag := &Tag{Key: "k", Labels: []string{"Hot", "New"}}
	g.Expect(context.RegisterNode(tag, 4)).To(Succeed())

	tag.Labels = []string{"Hot"}
	result, err := Compile(tag, context, registry)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.UpdateNodeBatches).To(HaveLen(1))
	g.Expect(result.UpdateNodeBatches[0].Cypher).To(ContainSubstring("SET n:`Tag`:`Hot` REMOVE n:`New`"))
}

func TestCompileRejectsInvalidRoots(t *testing.T) {
	g := NewGomegaWithT(t)
	registry := newTestRegistry()
	context := NewMappingContext(registry)

	_, err := Compile(nil, context, registry)
	g.Expect(errors.Is(err, ErrIllegalArgument)).To(BeTrue())

	_, err = Compile(Person{}, context, registry)
	g.Expect(errors.Is(err, ErrIllegalArgument)).To(BeTrue())

	_, err = Compile(&Movie{}, context, registry)
	g.Expect(errors.Is(err, ErrMapping)).To(BeTrue(), "an assigned key must be set")

	_, err = Compile(&ActedIn{Role: "Neo"}, context, registry)
	g.Expect(errors.Is(err, ErrMapping)).To(BeTrue(), "a relationship entity needs both endpoints")
}
