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
	"reflect"

	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

//graphModel is the set of distinct nodes and relationships found in a query result, plus the
//ids of the entities the query was anchored on in result order.
type graphModel struct {
	nodes         map[int64]neo4j.Node
	nodeOrder     []int64
	relationships map[int64]neo4j.Relationship
	relOrder      []int64
	roots         []int64
	rootSeen      map[int64]bool
	relRoots      []int64
	relRootSeen   map[int64]bool
}

const (
	nodeRootKey         = "ID(n)"
	relationshipRootKey = "rId"
)

func newGraphModel() *graphModel {
	return &graphModel{
		nodes:         map[int64]neo4j.Node{},
		relationships: map[int64]neo4j.Relationship{},
		rootSeen:      map[int64]bool{},
		relRootSeen:   map[int64]bool{},
	}
}

func (g *graphModel) addNode(node neo4j.Node) {
	if _, ok := g.nodes[node.Id]; !ok {
		g.nodes[node.Id] = node
		g.nodeOrder = append(g.nodeOrder, node.Id)
	}
}

func (g *graphModel) addRelationship(relationship neo4j.Relationship) {
	if _, ok := g.relationships[relationship.Id]; !ok {
		g.relationships[relationship.Id] = relationship
		g.relOrder = append(g.relOrder, relationship.Id)
	}
}

func (g *graphModel) addRoot(id int64) {
	if !g.rootSeen[id] {
		g.rootSeen[id] = true
		g.roots = append(g.roots, id)
	}
}

func (g *graphModel) addRelationshipRoot(id int64) {
	if !g.relRootSeen[id] {
		g.relRootSeen[id] = true
		g.relRoots = append(g.relRoots, id)
	}
}

func (g *graphModel) add(value any) {
	switch v := value.(type) {
	case neo4j.Node:
		g.addNode(v)
	case *neo4j.Node:
		g.addNode(*v)
	case neo4j.Relationship:
		g.addRelationship(v)
	case *neo4j.Relationship:
		g.addRelationship(*v)
	case neo4j.Path:
		g.addPath(v)
	case *neo4j.Path:
		g.addPath(*v)
	case []any:
		for _, element := range v {
			g.add(element)
		}
	}
}

func (g *graphModel) addPath(path neo4j.Path) {
	for _, node := range path.Nodes {
		g.addNode(node)
	}
	for _, relationship := range path.Relationships {
		g.addRelationship(relationship)
	}
}

//newGraphModelFromRecords collects the graph held by records. Root ids are read from rootKey
//when given; otherwise every node or relationship returned in a column of its own is a root.
func newGraphModelFromRecords(records []*neo4j.Record, rootKey string) *graphModel {
	g := newGraphModel()
	for _, record := range records {
		for i, key := range record.Keys {
			value := record.Values[i]
			if key == rootKey {
				if id, ok := value.(int64); ok {
					if rootKey == relationshipRootKey {
						g.addRelationshipRoot(id)
					} else {
						g.addRoot(id)
					}
				}
				continue
			}
			g.add(value)
			if rootKey == "" {
				g.addColumnRoot(value)
			}
		}
	}
	return g
}

func (g *graphModel) addColumnRoot(value any) {
	switch v := value.(type) {
	case neo4j.Node:
		g.addRoot(v.Id)
	case *neo4j.Node:
		g.addRoot(v.Id)
	case neo4j.Relationship:
		g.addRelationshipRoot(v.Id)
	case *neo4j.Relationship:
		g.addRelationshipRoot(v.Id)
	case []any:
		for _, element := range v {
			g.addColumnRoot(element)
		}
	}
}

//graphEntityMapper turns query results into domain objects, reusing the objects already
//known to the mapping context so that each persisted entity has one object per session.
type graphEntityMapper struct {
	registry *Registry
	context  *MappingContext
	logger   *zap.Logger
}

func newGraphEntityMapper(registry *Registry, context *MappingContext, logger *zap.Logger) *graphEntityMapper {
	return &graphEntityMapper{registry, context, logger}
}

//mapGraph hydrates every node and relationship of g and registers them as persisted.
func (m *graphEntityMapper) mapGraph(g *graphModel) error {
	var err error
	for _, id := range g.nodeOrder {
		err = multierr.Append(err, m.mapNode(g.nodes[id]))
	}
	if err != nil {
		return err
	}
	for _, id := range g.relOrder {
		err = multierr.Append(err, m.mapRelationship(g.relationships[id]))
	}
	return err
}

func (m *graphEntityMapper) mapNode(node neo4j.Node) error {
	object, known := m.context.NodeByID(node.Id)
	if !known {
		t, ok := m.registry.nodeTypeFor(node.Labels)
		if !ok {
			m.logger.Debug("no entity for labels, node skipped", zap.Strings("labels", node.Labels), zap.Int64("id", node.Id))
			return nil
		}
		object = reflect.New(t).Interface()
	}

	metadata, v, err := m.registry.metadataOf(object)
	if err != nil {
		return err
	}
	if err = metadata.assignProperties(v, node.Props); err != nil {
		return err
	}
	metadata.assignLabels(v, node.Labels)
	metadata.setNativeID(v, node.Id)
	return m.context.RegisterNode(object, node.Id)
}

func (m *graphEntityMapper) mapRelationship(relationship neo4j.Relationship) error {
	start, startKnown := m.context.NodeByID(relationship.StartId)
	end, endKnown := m.context.NodeByID(relationship.EndId)
	if !startKnown || !endKnown {
		return nil
	}
	startType, endType := reflect.TypeOf(start).Elem(), reflect.TypeOf(end).Elem()

	if t, ok := m.registry.relationshipEntityTypeFor(relationship.Type, startType, endType); ok {
		return m.mapRelationshipEntity(relationship, t, start, end)
	}

	if err := m.attach(start, relationship.Type, Outgoing, endType, end); err != nil {
		return err
	}
	if err := m.attach(end, relationship.Type, Incoming, startType, start); err != nil {
		return err
	}
	m.context.RegisterRelationship(NewMappedRelationship(relationship.StartId, relationship.Type, relationship.EndId))
	return nil
}

func (m *graphEntityMapper) mapRelationshipEntity(relationship neo4j.Relationship, t reflect.Type, start, end any) error {
	object, known := m.context.RelationshipEntityByID(relationship.Id)
	if !known {
		object = reflect.New(t).Interface()
	}
	metadata, v, err := m.registry.metadataOf(object)
	if err != nil {
		return err
	}
	if err = metadata.assignProperties(v, relationship.Props); err != nil {
		return err
	}
	metadata.assignEndpoints(v, start, end)
	metadata.setNativeID(v, relationship.Id)

	if err = m.attach(start, relationship.Type, Outgoing, t, object); err != nil {
		return err
	}
	if err = m.attach(end, relationship.Type, Incoming, t, object); err != nil {
		return err
	}
	if err = m.context.RegisterRelationshipEntity(object, relationship.Id); err != nil {
		return err
	}
	m.context.RegisterRelationship(NewMappedRelationship(relationship.StartId, relationship.Type, relationship.EndId).WithRelationshipID(relationship.Id))
	return nil
}

//attach adds target to every relationship field of owner declared with relationshipType,
//a direction compatible with side and target's type.
func (m *graphEntityMapper) attach(owner any, relationshipType string, side Direction, targetType reflect.Type, target any) error {
	metadata, v, err := m.registry.metadataOf(owner)
	if err != nil {
		return err
	}
	for _, rf := range metadata.relationships {
		if rf.target != targetType || (rf.direction != side && rf.direction != Undirected) {
			continue
		}
		if m.relationshipTypeOf(rf) != relationshipType {
			continue
		}
		addTarget(v.FieldByIndex(rf.index), rf, target)
	}
	return nil
}

func (m *graphEntityMapper) relationshipTypeOf(rf relationshipField) string {
	if target, err := m.registry.metadataFor(rf.target); err == nil && target.descriptor.IsRelationshipEntity {
		return target.descriptor.RelationshipType
	}
	if rf.declaredType != "" {
		return rf.declaredType
	}
	return upperSnake(rf.name)
}

//rootNodes returns the objects of the root nodes in g, in root order.
func (m *graphEntityMapper) rootNodes(g *graphModel) []any {
	var roots []any
	for _, id := range g.roots {
		if object, ok := m.context.NodeByID(id); ok {
			roots = append(roots, object)
		}
	}
	return roots
}

//rootRelationshipEntities returns the relationship entity objects of the root relationships in g.
func (m *graphEntityMapper) rootRelationshipEntities(g *graphModel) []any {
	var roots []any
	for _, id := range g.relRoots {
		if object, ok := m.context.RelationshipEntityByID(id); ok {
			roots = append(roots, object)
		}
	}
	return roots
}
