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
	"sync"

	"go.uber.org/multierr"
)

//MetadataProvider resolves the graph schema of domain objects. Objects are pointers to
//registered structs.
type MetadataProvider interface {
	DescriptorOf(object any) (*EntityDescriptor, error)
	LabelsOf(object any) ([]string, error)
	PropertiesOf(object any) ([]Property, error)
	RelationshipsOf(object any) ([]RelationshipAttribute, error)
	IdentityStrategyOf(t reflect.Type) (IdentityStrategy, error)
	//NativeIDOf reads the identity field. ok is false when the field is absent or nil.
	NativeIDOf(object any) (id int64, ok bool, err error)
	//EndpointsOf returns the start and end nodes declared by a relationship entity.
	EndpointsOf(relationshipEntity any) (start any, end any, err error)
}

//Registry is the schema registry built from struct tags. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[reflect.Type]*entityMetadata
}

//NewRegistry creates a registry and registers types. Types are given as struct values,
//pointers to structs or reflect.Type values.
func NewRegistry(types ...any) (*Registry, error) {
	r := &Registry{entities: map[reflect.Type]*entityMetadata{}}
	if err := r.Register(types...); err != nil {
		return nil, err
	}
	return r, nil
}

//Register scans the given types. All invalid types are reported together, valid ones are
//registered regardless.
func (r *Registry) Register(types ...any) error {
	var err error

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, typ := range types {
		t, ok := typ.(reflect.Type)
		if !ok {
			t = reflect.TypeOf(typ)
		}
		for t != nil && t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t == nil || t.Kind() != reflect.Struct {
			err = multierr.Append(err, mappingError("cannot register %v: not a struct", typ))
			continue
		}
		if r.entities[t] != nil {
			continue
		}
		metadata, scanErr := newEntityMetadata(t)
		if scanErr != nil {
			err = multierr.Append(err, scanErr)
			continue
		}
		r.entities[t] = metadata
	}
	return err
}

func (r *Registry) metadataFor(t reflect.Type) (*entityMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if metadata := r.entities[t]; metadata != nil {
		return metadata, nil
	}
	return nil, mappingError("no entity descriptor for %s", t)
}

func (r *Registry) metadataOf(object any) (*entityMetadata, reflect.Value, error) {
	v, err := entityValue(object)
	if err != nil {
		return nil, v, err
	}
	metadata, err := r.metadataFor(v.Type())
	return metadata, v, err
}

//entityValue returns the struct an object points to.
func entityValue(object any) (reflect.Value, error) {
	v := reflect.ValueOf(object)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, illegalArgument("%T is not a non-nil pointer to a struct", object)
	}
	return v.Elem(), nil
}

func (r *Registry) DescriptorOf(object any) (*EntityDescriptor, error) {
	metadata, _, err := r.metadataOf(object)
	if err != nil {
		return nil, err
	}
	descriptor := metadata.descriptor
	return &descriptor, nil
}

func (r *Registry) LabelsOf(object any) ([]string, error) {
	metadata, v, err := r.metadataOf(object)
	if err != nil {
		return nil, err
	}
	if metadata.descriptor.IsRelationshipEntity {
		return nil, nil
	}
	return metadata.labels(v), nil
}

func (r *Registry) PropertiesOf(object any) ([]Property, error) {
	metadata, v, err := r.metadataOf(object)
	if err != nil {
		return nil, err
	}
	return metadata.propertyValues(v), nil
}

func (r *Registry) RelationshipsOf(object any) ([]RelationshipAttribute, error) {
	metadata, v, err := r.metadataOf(object)
	if err != nil {
		return nil, err
	}

	attributes := make([]RelationshipAttribute, 0, len(metadata.relationships))
	for _, rf := range metadata.relationships {
		target, err := r.metadataFor(rf.target)
		if err != nil {
			return nil, err
		}
		attribute := RelationshipAttribute{
			Name:                       rf.name,
			Type:                       rf.declaredType,
			Direction:                  rf.direction,
			Collection:                 rf.collection,
			Target:                     rf.target,
			TargetIsRelationshipEntity: target.descriptor.IsRelationshipEntity,
			Values:                     relationshipTargets(v.FieldByIndex(rf.index), rf.collection),
		}
		switch {
		case attribute.TargetIsRelationshipEntity:
			attribute.Type = target.descriptor.RelationshipType
		case attribute.Type == "":
			attribute.Type = upperSnake(rf.name)
		}
		attributes = append(attributes, attribute)
	}
	return attributes, nil
}

func (r *Registry) IdentityStrategyOf(t reflect.Type) (IdentityStrategy, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	metadata, err := r.metadataFor(t)
	if err != nil {
		return InternalIDStrategy, err
	}
	return metadata.descriptor.Strategy, nil
}

func (r *Registry) NativeIDOf(object any) (int64, bool, error) {
	metadata, v, err := r.metadataOf(object)
	if err != nil {
		return 0, false, err
	}
	id, ok := metadata.nativeID(v)
	return id, ok, nil
}

func (r *Registry) EndpointsOf(relationshipEntity any) (any, any, error) {
	metadata, v, err := r.metadataOf(relationshipEntity)
	if err != nil {
		return nil, nil, err
	}
	if !metadata.descriptor.IsRelationshipEntity {
		return nil, nil, mappingError("%s is not a relationship entity", v.Type())
	}
	start, end := metadata.endpoints(v)
	if start == nil || end == nil {
		return nil, nil, mappingError("%s: relationship entity without both start and end node", v.Type())
	}
	return start, end, nil
}

//SetNativeID writes id into the object's identity field, when it has one.
func (r *Registry) SetNativeID(object any, id int64) error {
	metadata, v, err := r.metadataOf(object)
	if err != nil {
		return err
	}
	metadata.setNativeID(v, id)
	return nil
}

//setPrimaryKey writes a generated key into the object's primary index field.
func (r *Registry) setPrimaryKey(object any, key string) error {
	metadata, v, err := r.metadataOf(object)
	if err != nil {
		return err
	}
	if pf, ok := metadata.primaryField(); ok {
		v.FieldByIndex(pf.index).SetString(key)
	}
	return nil
}

//nodeTypeFor picks the registered node type whose static labels are all present in labels,
//preferring the most specific one.
func (r *Registry) nodeTypeFor(labels []string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	present := map[string]bool{}
	for _, label := range labels {
		present[label] = true
	}

	var candidates []*entityMetadata
	for _, metadata := range r.entities {
		if metadata.descriptor.IsRelationshipEntity {
			continue
		}
		matches := true
		for _, label := range metadata.descriptor.Labels {
			if !present[label] {
				matches = false
				break
			}
		}
		if matches {
			candidates = append(candidates, metadata)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i].descriptor.Labels) != len(candidates[j].descriptor.Labels) {
			return len(candidates[i].descriptor.Labels) > len(candidates[j].descriptor.Labels)
		}
		return candidates[i].descriptor.Type.String() < candidates[j].descriptor.Type.String()
	})
	return candidates[0].descriptor.Type, true
}

//relationshipEntityTypeFor returns the relationship entity registered for a relationship type
//whose endpoints accept the given node types.
func (r *Registry) relationshipEntityTypeFor(relationshipType string, start, end reflect.Type) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for t, metadata := range r.entities {
		d := metadata.descriptor
		if d.IsRelationshipEntity && d.RelationshipType == relationshipType && d.StartNodeType == start && d.EndNodeType == end {
			return t, true
		}
	}
	return nil, false
}
