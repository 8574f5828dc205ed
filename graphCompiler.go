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
	"math"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//unboundedHorizon stands in for an unlimited save depth while walking.
const unboundedHorizon = math.MaxInt32

//Compiler turns an object graph into the write batches that reconcile it with the store.
type Compiler struct {
	metadata MetadataProvider
	logger   *zap.Logger
}

//CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

func WithCompilerLogger(logger *zap.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = logger
	}
}

func NewCompiler(metadata MetadataProvider, options ...CompilerOption) *Compiler {
	c := &Compiler{metadata: metadata, logger: zap.NewNop()}
	for _, option := range options {
		option(c)
	}
	return c
}

//Compile walks the whole graph reachable from root.
func Compile(root any, cache PersistedState, metadata MetadataProvider) (*CompileResult, error) {
	return NewCompiler(metadata).Compile(root, cache, infiniteDepth)
}

//Compile walks the graph reachable from root up to depth hops (negative for no limit) and
//returns the batches needed to persist it. The cache is only read.
func (c *Compiler) Compile(root any, cache PersistedState, depth int) (*CompileResult, error) {
	if root == nil {
		return nil, illegalArgument("cannot compile a nil root object")
	}
	if _, err := entityValue(root); err != nil {
		return nil, err
	}
	descriptor, err := c.metadata.DescriptorOf(root)
	if err != nil {
		return nil, err
	}

	horizon := depth
	if depth < 0 {
		horizon = unboundedHorizon
	}

	p := &compilation{
		Compiler:                    c,
		cache:                       cache,
		visited:                     map[any]*nodeBuilder{},
		visitedRelationshipEntities: map[any]bool{},
		transient:                   map[transientKey]bool{},
		clearedSet:                  map[MappedRelationship]bool{},
		confirmed:                   map[MappedRelationship]bool{},
		createNodes:                 newBatchGroup(CreateNodes),
		updateNodes:                 newBatchGroup(UpdateNodes),
		createRelationships:         newBatchGroup(CreateRelationships),
		updateRelationships:         newBatchGroup(UpdateRelationships),
		deleteRelationships:         newBatchGroup(DeleteRelationships),
		result:                      newCompileResult(),
	}

	if descriptor.IsRelationshipEntity {
		err = p.linkRelationshipEntity(nil, root, horizon)
	} else {
		_, err = p.mapEntity(root, horizon)
	}
	if err != nil {
		return nil, err
	}
	p.deleteObsoleteRelationships()

	result := p.result
	result.CreateNodeBatches = p.createNodes.batches
	result.UpdateNodeBatches = p.updateNodes.batches
	result.CreateRelationshipBatches = p.createRelationships.batches
	result.UpdateRelationshipBatches = p.updateRelationships.batches
	result.DeleteRelationshipBatches = p.deleteRelationships.batches

	c.logger.Debug("compiled object graph",
		zap.String("root", descriptor.Type.Name()),
		zap.Int("nodes", len(p.visited)),
		zap.Int("batches", len(result.Statements())),
		zap.Bool("dependentOnNewNodes", result.DependentOnNewNodes()))
	return result, nil
}

type transientKey struct {
	start            any
	end              any
	relationshipType string
}

//compilation is the state of a single Compile call.
type compilation struct {
	*Compiler
	cache                       PersistedState
	visited                     map[any]*nodeBuilder
	visitedRelationshipEntities map[any]bool
	transient                   map[transientKey]bool
	cleared                     []MappedRelationship
	clearedSet                  map[MappedRelationship]bool
	confirmed                   map[MappedRelationship]bool
	nextRef                     int64

	createNodes         *batchGroup
	updateNodes         *batchGroup
	createRelationships *batchGroup
	updateRelationships *batchGroup
	deleteRelationships *batchGroup

	result *CompileResult
}

//newRef hands out the temporary negative references of objects that have no native id yet.
func (p *compilation) newRef() int64 {
	p.nextRef--
	return p.nextRef
}

func (p *compilation) identityOf(object any) (int64, bool) {
	if id, ok := p.cache.NativeIDOf(object); ok {
		return id, true
	}
	if id, ok, err := p.metadata.NativeIDOf(object); err == nil && ok {
		return id, true
	}
	return 0, false
}

func (p *compilation) mapEntity(object any, horizon int) (*nodeBuilder, error) {
	if nb, ok := p.visited[object]; ok {
		if horizon > nb.horizon {
			nb.horizon = horizon
			return nb, p.mapEntityReferences(nb, horizon)
		}
		return nb, nil
	}

	descriptor, err := p.metadata.DescriptorOf(object)
	if err != nil {
		return nil, err
	}
	if descriptor.IsRelationshipEntity {
		return nil, mappingError("%s is a relationship entity and cannot be mapped as a node", descriptor.Type)
	}

	nb := &nodeBuilder{object: object, horizon: horizon}
	if id, ok := p.identityOf(object); ok {
		nb.ref, nb.existing = id, true
	} else {
		nb.ref = p.newRef()
	}
	p.visited[object] = nb

	p.logger.Debug("visiting", zap.String("type", descriptor.Type.Name()), zap.Int64("ref", nb.ref), zap.Bool("existing", nb.existing))

	if err = p.emitNode(nb, descriptor); err != nil {
		return nil, err
	}
	if horizon != 0 {
		if err = p.mapEntityReferences(nb, horizon); err != nil {
			return nil, err
		}
	}
	return nb, nil
}

func (p *compilation) emitNode(nb *nodeBuilder, descriptor *EntityDescriptor) error {
	labels, err := p.metadata.LabelsOf(nb.object)
	if err != nil {
		return err
	}
	properties, err := p.metadata.PropertiesOf(nb.object)
	if err != nil {
		return err
	}
	props := propertyMap(properties)

	if !nb.existing {
		mergeKey := ""
		if descriptor.Strategy != InternalIDStrategy {
			mergeKey = descriptor.PrimaryIndex
			if isBlank(props[mergeKey]) {
				if descriptor.Strategy != UUIDStrategy {
					return mappingError("%s: primary index %s is not set", descriptor.Type, mergeKey)
				}
				key := uuid.NewString()
				props[mergeKey] = key
				p.result.generatedKeys[nb.ref] = key
			}
		}
		p.result.newObjects[nb.ref] = nb.object
		p.createNodes.add(newNodeKey(labels, mergeKey), func() string {
			return newNodesCypher(labels, mergeKey)
		}, map[string]any{nodeRefKey: nb.ref, propsKey: props})
		return nil
	}

	if !p.cache.IsDirty(nb.object) {
		return nil
	}
	removed := removedLabels(p.cache.LabelHistory(nb.ref), labels)
	p.updateNodes.add(existingNodeKey(labels, removed), func() string {
		return existingNodesCypher(labels, removed)
	}, map[string]any{nodeIDKey: nb.ref, propsKey: props})
	p.result.updatedNodes = append(p.result.updatedNodes, persistedEntity{nb.object, nb.ref})
	return nil
}

func (p *compilation) mapEntityReferences(nb *nodeBuilder, horizon int) error {
	attributes, err := p.metadata.RelationshipsOf(nb.object)
	if err != nil {
		return err
	}
	for _, attribute := range attributes {
		if attribute.TargetIsRelationshipEntity {
			if attribute, err = p.relationshipEntityAttribute(nb, attribute); err != nil {
				return err
			}
		}
		if nb.existing {
			if err = p.clearRelationships(nb, attribute); err != nil {
				return err
			}
		}
		for _, target := range attribute.Values {
			if attribute.TargetIsRelationshipEntity {
				if err = p.linkRelationshipEntity(nb, target, horizon-1); err != nil {
					return err
				}
				continue
			}
			tb, err := p.mapEntity(target, horizon-1)
			if err != nil {
				return err
			}
			p.relate(nb, tb, attribute)
		}
	}
	return nil
}

//relationshipEntityAttribute orients a field of relationship entities by the endpoints the
//entity type declares, which win over the field's own direction. Target becomes the node
//type at the far end.
func (p *compilation) relationshipEntityAttribute(nb *nodeBuilder, attribute RelationshipAttribute) (RelationshipAttribute, error) {
	descriptor, err := p.metadata.DescriptorOf(reflect.New(attribute.Target).Interface())
	if err != nil {
		return attribute, err
	}
	own := reflect.TypeOf(nb.object).Elem()
	switch {
	case own == descriptor.StartNodeType && own != descriptor.EndNodeType:
		attribute.Direction = Outgoing
	case own == descriptor.EndNodeType && own != descriptor.StartNodeType:
		attribute.Direction = Incoming
	}
	attribute.Target = descriptor.EndNodeType
	if attribute.Direction == Incoming {
		attribute.Target = descriptor.StartNodeType
	}
	return attribute, nil
}

//clearRelationships marks the cached relationships a traversed field is responsible for as
//candidates for deletion. Candidates re-established during the walk survive.
func (p *compilation) clearRelationships(nb *nodeBuilder, attribute RelationshipAttribute) error {
	for _, r := range p.cache.KnownRelationships(nb.ref) {
		if r.Type != attribute.Type || r.isEntity() != attribute.TargetIsRelationshipEntity {
			continue
		}
		var other int64
		switch {
		case attribute.Direction != Incoming && r.StartNodeID == nb.ref:
			other = r.EndNodeID
		case attribute.Direction != Outgoing && r.EndNodeID == nb.ref:
			other = r.StartNodeID
		default:
			continue
		}
		if object, ok := p.cache.NodeByID(other); ok && reflect.TypeOf(object).Elem() != attribute.Target {
			continue
		}
		p.clear(r)
	}
	return nil
}

func (p *compilation) clear(r MappedRelationship) {
	if p.clearedSet[r] {
		return
	}
	p.clearedSet[r] = true
	p.cleared = append(p.cleared, r)
}

func (p *compilation) relate(nb *nodeBuilder, tb *nodeBuilder, attribute RelationshipAttribute) {
	start, end := nb, tb
	if attribute.Direction == Incoming {
		start, end = tb, nb
	}

	if start.existing && end.existing {
		r := NewMappedRelationship(start.ref, attribute.Type, end.ref)
		if attribute.Direction == Undirected && !p.cache.ContainsRelationship(r) && p.cache.ContainsRelationship(r.reversed()) {
			r = r.reversed()
		}
		if p.cache.ContainsRelationship(r) {
			p.confirmed[r] = true
			return
		}
	}

	key := transientKey{start.object, end.object, attribute.Type}
	if p.transient[key] {
		return
	}
	if attribute.Direction == Undirected && p.transient[transientKey{end.object, start.object, attribute.Type}] {
		return
	}
	p.transient[key] = true

	rb := &relationshipBuilder{start: start, end: end, relationshipType: attribute.Type, ref: p.newRef()}
	p.result.newRelationships = append(p.result.newRelationships, rb)
	p.createRelationships.add(relationshipKey(attribute.Type, false), func() string {
		return newRelationshipsCypher(attribute.Type, false)
	}, map[string]any{startNodeIDKey: start.ref, endNodeIDKey: end.ref, relRefKey: rb.ref})

	p.logger.Debug("context-new", zap.String("type", attribute.Type), zap.Int64("start", start.ref), zap.Int64("end", end.ref))
}

//linkRelationshipEntity maps a relationship entity reached from nb, or the root entity when
//nb is nil, together with whichever of its endpoints has not been walked yet.
func (p *compilation) linkRelationshipEntity(nb *nodeBuilder, entity any, horizon int) error {
	if p.visitedRelationshipEntities[entity] {
		return nil
	}
	p.visitedRelationshipEntities[entity] = true

	descriptor, err := p.metadata.DescriptorOf(entity)
	if err != nil {
		return err
	}
	if !descriptor.IsRelationshipEntity {
		return mappingError("%s is not a relationship entity", descriptor.Type)
	}
	start, end, err := p.metadata.EndpointsOf(entity)
	if err != nil {
		return err
	}

	var sb, eb *nodeBuilder
	switch {
	case nb != nil && start == nb.object:
		sb = nb
		eb, err = p.mapEntity(end, horizon)
	case nb != nil && end == nb.object:
		eb = nb
		sb, err = p.mapEntity(start, horizon)
	default:
		if sb, err = p.mapEntity(start, horizon); err == nil {
			eb, err = p.mapEntity(end, horizon)
		}
	}
	if err != nil {
		return err
	}

	properties, err := p.metadata.PropertiesOf(entity)
	if err != nil {
		return err
	}
	props := propertyMap(properties)
	relationshipType := descriptor.RelationshipType

	if id, ok := p.identityOf(entity); ok {
		registered, known := p.cache.RelationshipByID(id)
		current := NewMappedRelationship(sb.ref, relationshipType, eb.ref).WithRelationshipID(id)
		if !known || (sb.existing && eb.existing && registered == current) {
			if known {
				p.confirmed[registered] = true
			}
			if p.cache.IsDirty(entity) {
				p.updateRelationships.add(relationshipKey(relationshipType, true), existingRelationshipsCypher,
					map[string]any{relIDKey: id, propsKey: props})
				p.result.updatedRelationshipEntities = append(p.result.updatedRelationshipEntities, persistedEntity{entity, id})
			}
			return nil
		}
		p.logger.Debug("relationship entity moved", zap.String("type", relationshipType), zap.Int64("id", id))
		p.clear(registered)
	}

	rb := &relationshipBuilder{start: sb, end: eb, relationshipType: relationshipType, ref: p.newRef(), object: entity}
	p.result.newObjects[rb.ref] = entity
	p.result.newRelationships = append(p.result.newRelationships, rb)
	p.createRelationships.add(relationshipKey(relationshipType, true), func() string {
		return newRelationshipsCypher(relationshipType, true)
	}, map[string]any{startNodeIDKey: sb.ref, endNodeIDKey: eb.ref, relRefKey: rb.ref, propsKey: props})
	return nil
}

//deleteObsoleteRelationships emits a delete for every cleared relationship nothing re-established.
func (p *compilation) deleteObsoleteRelationships() {
	for _, r := range p.cleared {
		if p.confirmed[r] {
			continue
		}
		relationshipType := r.Type
		if r.isEntity() {
			p.deleteRelationships.add(relationshipKey(relationshipType, true), deletedRelationshipEntitiesCypher,
				map[string]any{relIDKey: r.RelationshipID})
		} else {
			p.deleteRelationships.add(relationshipKey(relationshipType, false), func() string {
				return deletedRelationshipsCypher(relationshipType)
			}, map[string]any{startNodeIDKey: r.StartNodeID, endNodeIDKey: r.EndNodeID})
		}
		p.result.deletedRelationships = append(p.result.deletedRelationships, r)
		p.logger.Debug("context-del", zap.String("type", relationshipType), zap.Int64("start", r.StartNodeID), zap.Int64("end", r.EndNodeID))
	}
}

func removedLabels(previous []string, current []string) []string {
	keep := map[string]bool{}
	for _, label := range current {
		keep[label] = true
	}
	var removed []string
	for _, label := range previous {
		if !keep[label] {
			removed = append(removed, label)
		}
	}
	return removed
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
