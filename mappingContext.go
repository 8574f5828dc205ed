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
	"sort"
)

//NoRelationshipID marks a MappedRelationship that is not backed by a relationship entity.
const NoRelationshipID int64 = -1

//MappedRelationship identifies a persisted relationship for diffing purposes.
type MappedRelationship struct {
	StartNodeID    int64
	Type           string
	EndNodeID      int64
	RelationshipID int64
}

//NewMappedRelationship returns a plain relationship key.
func NewMappedRelationship(startNodeID int64, relationshipType string, endNodeID int64) MappedRelationship {
	return MappedRelationship{startNodeID, relationshipType, endNodeID, NoRelationshipID}
}

//WithRelationshipID returns the key of a relationship entity persisted as id.
func (r MappedRelationship) WithRelationshipID(id int64) MappedRelationship {
	r.RelationshipID = id
	return r
}

func (r MappedRelationship) isEntity() bool {
	return r.RelationshipID != NoRelationshipID
}

func (r MappedRelationship) reversed() MappedRelationship {
	r.StartNodeID, r.EndNodeID = r.EndNodeID, r.StartNodeID
	return r
}

//PersistedState is the read-only view of a MappingContext used while compiling.
type PersistedState interface {
	IsRegistered(object any) bool
	NativeIDOf(object any) (int64, bool)
	IsDirty(object any) bool
	NodeByID(id int64) (any, bool)
	KnownRelationships(nodeID int64) []MappedRelationship
	ContainsRelationship(r MappedRelationship) bool
	RelationshipByID(id int64) (MappedRelationship, bool)
	LabelHistory(id int64) []string
}

//MappingContext is the session scoped identity map of persisted nodes, relationship
//entities and relationships. It is not safe for concurrent use.
type MappingContext struct {
	metadata            MetadataProvider
	memo                *entityMemo
	nodeIDs             map[any]int64
	nodes               map[int64]any
	relationshipIDs     map[any]int64
	relationshipObjects map[int64]any
	relationships       map[MappedRelationship]struct{}
	byNode              map[int64]map[MappedRelationship]struct{}
	labelHistory        map[int64][]string
}

func NewMappingContext(metadata MetadataProvider) *MappingContext {
	c := &MappingContext{metadata: metadata, memo: newEntityMemo(metadata)}
	c.Clear()
	return c
}

//RegisterNode records object as persisted with id and snapshots its current state.
func (c *MappingContext) RegisterNode(object any, id int64) error {
	labels, err := c.metadata.LabelsOf(object)
	if err != nil {
		return err
	}
	if previous, ok := c.nodes[id]; ok && previous != object {
		delete(c.nodeIDs, previous)
	}
	if previousID, ok := c.nodeIDs[object]; ok && previousID != id {
		delete(c.nodes, previousID)
	}
	if err = c.memo.rememberNode(id, object); err != nil {
		return err
	}
	c.nodeIDs[object] = id
	c.nodes[id] = object
	c.labelHistory[id] = labels
	return nil
}

//RegisterRelationshipEntity records a relationship entity persisted with id.
func (c *MappingContext) RegisterRelationshipEntity(object any, id int64) error {
	if err := c.memo.rememberRelationship(id, object); err != nil {
		return err
	}
	c.relationshipIDs[object] = id
	c.relationshipObjects[id] = object
	return nil
}

func (c *MappingContext) RegisterRelationship(r MappedRelationship) {
	c.relationships[r] = struct{}{}
	for _, id := range []int64{r.StartNodeID, r.EndNodeID} {
		if c.byNode[id] == nil {
			c.byNode[id] = map[MappedRelationship]struct{}{}
		}
		c.byNode[id][r] = struct{}{}
	}
}

//DeregisterRelationship forgets r and, for a relationship entity, its object.
func (c *MappingContext) DeregisterRelationship(r MappedRelationship) bool {
	if _, ok := c.relationships[r]; !ok {
		return false
	}
	delete(c.relationships, r)
	for _, id := range []int64{r.StartNodeID, r.EndNodeID} {
		delete(c.byNode[id], r)
		if len(c.byNode[id]) == 0 {
			delete(c.byNode, id)
		}
	}
	if r.isEntity() {
		if object, ok := c.relationshipObjects[r.RelationshipID]; ok {
			delete(c.relationshipIDs, object)
			delete(c.relationshipObjects, r.RelationshipID)
		}
		c.memo.forgetRelationship(r.RelationshipID)
	}
	return true
}

//RemoveNode forgets object together with every relationship touching it.
func (c *MappingContext) RemoveNode(object any) {
	id, ok := c.nodeIDs[object]
	if !ok {
		return
	}
	for _, r := range c.KnownRelationships(id) {
		c.DeregisterRelationship(r)
	}
	delete(c.nodeIDs, object)
	delete(c.nodes, id)
	delete(c.labelHistory, id)
	c.memo.forgetNode(id)
}

//RemoveEntitiesOfType forgets every node and relationship entity whose struct type is t.
func (c *MappingContext) RemoveEntitiesOfType(t reflect.Type) {
	for object, id := range c.relationshipIDs {
		if reflect.TypeOf(object).Elem() != t {
			continue
		}
		if r, ok := c.RelationshipByID(id); ok {
			c.DeregisterRelationship(r)
			continue
		}
		delete(c.relationshipIDs, object)
		delete(c.relationshipObjects, id)
		c.memo.forgetRelationship(id)
	}
	for object := range c.nodeIDs {
		if reflect.TypeOf(object).Elem() == t {
			c.RemoveNode(object)
		}
	}
}

func (c *MappingContext) IsRegistered(object any) bool {
	if _, ok := c.nodeIDs[object]; ok {
		return true
	}
	_, ok := c.relationshipIDs[object]
	return ok
}

func (c *MappingContext) NativeIDOf(object any) (int64, bool) {
	if id, ok := c.nodeIDs[object]; ok {
		return id, true
	}
	id, ok := c.relationshipIDs[object]
	return id, ok
}

//IsDirty reports whether object differs from its last registered snapshot. Unregistered
//objects are always dirty.
func (c *MappingContext) IsDirty(object any) bool {
	if id, ok := c.nodeIDs[object]; ok {
		return c.memo.nodeChanged(id, object)
	}
	if id, ok := c.relationshipIDs[object]; ok {
		return c.memo.relationshipChanged(id, object)
	}
	return true
}

func (c *MappingContext) NodeByID(id int64) (any, bool) {
	object, ok := c.nodes[id]
	return object, ok
}

func (c *MappingContext) RelationshipEntityByID(id int64) (any, bool) {
	object, ok := c.relationshipObjects[id]
	return object, ok
}

//KnownRelationships returns the relationships starting or ending at nodeID in a stable order.
func (c *MappingContext) KnownRelationships(nodeID int64) []MappedRelationship {
	known := make([]MappedRelationship, 0, len(c.byNode[nodeID]))
	for r := range c.byNode[nodeID] {
		known = append(known, r)
	}
	sortRelationships(known)
	return known
}

func (c *MappingContext) ContainsRelationship(r MappedRelationship) bool {
	_, ok := c.relationships[r]
	return ok
}

//RelationshipByID finds the registered relationship entity edge with the given id.
func (c *MappingContext) RelationshipByID(id int64) (MappedRelationship, bool) {
	if id == NoRelationshipID {
		return MappedRelationship{}, false
	}
	for r := range c.relationships {
		if r.RelationshipID == id {
			return r, true
		}
	}
	return MappedRelationship{}, false
}

func (c *MappingContext) Relationships() []MappedRelationship {
	all := make([]MappedRelationship, 0, len(c.relationships))
	for r := range c.relationships {
		all = append(all, r)
	}
	sortRelationships(all)
	return all
}

//LabelHistory returns the labels the node had when it was last registered.
func (c *MappingContext) LabelHistory(id int64) []string {
	return c.labelHistory[id]
}

func (c *MappingContext) Clear() {
	c.nodeIDs = map[any]int64{}
	c.nodes = map[int64]any{}
	c.relationshipIDs = map[any]int64{}
	c.relationshipObjects = map[int64]any{}
	c.relationships = map[MappedRelationship]struct{}{}
	c.byNode = map[int64]map[MappedRelationship]struct{}{}
	c.labelHistory = map[int64][]string{}
	c.memo.clear()
}

func sortRelationships(relationships []MappedRelationship) {
	sort.Slice(relationships, func(i, j int) bool {
		a, b := relationships[i], relationships[j]
		switch {
		case a.StartNodeID != b.StartNodeID:
			return a.StartNodeID < b.StartNodeID
		case a.Type != b.Type:
			return a.Type < b.Type
		case a.EndNodeID != b.EndNodeID:
			return a.EndNodeID < b.EndNodeID
		}
		return a.RelationshipID < b.RelationshipID
	})
}
