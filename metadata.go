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
	"strings"
	"time"
	"unicode"

	"go.uber.org/multierr"
)

const tagName = "gogm"

//Node marks a struct as a node entity when embedded. Labels are declared on the embedding
//field's tag, separated by colons: gogm:"label=Person:Actor". Without the marker a struct is
//still a node entity labeled with its type name.
type Node struct{}

//Relationship marks a struct as a relationship entity when embedded. The relationship type is
//declared on the embedding field's tag: gogm:"type=ACTED_IN".
type Relationship struct{}

//Direction of a relationship attribute as seen from the object declaring it.
type Direction string

const (
	Outgoing   Direction = "OUTGOING"
	Incoming   Direction = "INCOMING"
	Undirected Direction = "UNDIRECTED"
)

//IdentityStrategy tells how an entity is identified in the store.
type IdentityStrategy int

const (
	//InternalIDStrategy identifies entities by the store generated native id only.
	InternalIDStrategy IdentityStrategy = iota
	//AssignedKeyStrategy identifies entities by a user assigned primary index.
	AssignedKeyStrategy
	//UUIDStrategy identifies entities by a primary index generated on first save.
	UUIDStrategy
)

func (s IdentityStrategy) String() string {
	switch s {
	case AssignedKeyStrategy:
		return "assigned"
	case UUIDStrategy:
		return "uuid"
	}
	return "internal"
}

//Property is a persistable attribute of an entity.
type Property struct {
	Name  string
	Value any
}

//RelationshipAttribute describes one relationship field of an object and its current targets.
type RelationshipAttribute struct {
	Name       string
	Type       string
	Direction  Direction
	Collection bool
	//Target is the struct type of the field's elements.
	Target reflect.Type
	//TargetIsRelationshipEntity is set when the field holds relationship entities rather than nodes.
	TargetIsRelationshipEntity bool
	//Values holds the non-nil targets in field order.
	Values []any
}

//EntityDescriptor is the resolved schema of one entity type.
type EntityDescriptor struct {
	Type                 reflect.Type
	Labels               []string
	RelationshipType     string
	IsRelationshipEntity bool
	PrimaryIndex         string
	Strategy             IdentityStrategy
	StartNodeType        reflect.Type
	EndNodeType          reflect.Type
}

type propertyField struct {
	name    string
	index   []int
	primary bool
}

type relationshipField struct {
	name         string
	index        []int
	declaredType string
	direction    Direction
	collection   bool
	target       reflect.Type
}

type entityMetadata struct {
	descriptor    EntityDescriptor
	idField       []int
	labelsField   []int
	properties    []propertyField
	relationships []relationshipField
	startNode     []int
	endNode       []int
}

var (
	nodeMarkerType         = reflect.TypeOf(Node{})
	relationshipMarkerType = reflect.TypeOf(Relationship{})
	timeType               = reflect.TypeOf(time.Time{})
	nativeIDType           = reflect.TypeOf((*int64)(nil))
	stringSliceType        = reflect.TypeOf([]string(nil))
)

func parseTag(tag string) map[string]string {
	directives := map[string]string{}
	if tag == "" {
		return directives
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if key, value, found := strings.Cut(part, "="); found {
			directives[strings.TrimSpace(key)] = strings.TrimSpace(value)
		} else {
			directives[part] = ""
		}
	}
	return directives
}

//Scans the exported fields of t into entity metadata. Every problem found is reported.
func newEntityMetadata(t reflect.Type) (*entityMetadata, error) {
	var (
		err      error
		metadata = &entityMetadata{descriptor: EntityDescriptor{Type: t}}
		marked   bool
	)

	for _, f := range reflect.VisibleFields(t) {
		directives := parseTag(f.Tag.Get(tagName))

		if f.Anonymous && f.Type == nodeMarkerType {
			marked = true
			if labels, ok := directives["label"]; ok && labels != "" {
				metadata.descriptor.Labels = strings.Split(labels, ":")
			}
			continue
		}
		if f.Anonymous && f.Type == relationshipMarkerType {
			marked = true
			metadata.descriptor.IsRelationshipEntity = true
			metadata.descriptor.RelationshipType = directives["type"]
			continue
		}
		if f.Anonymous || !f.IsExported() {
			continue
		}
		if _, transient := directives["-"]; transient {
			continue
		}

		switch {
		case hasDirective(directives, "id") || (f.Name == "ID" && f.Type == nativeIDType && len(directives) == 0):
			if f.Type != nativeIDType {
				err = multierr.Append(err, mappingError("%s.%s: identity field must be *int64", t.Name(), f.Name))
				continue
			}
			if metadata.idField != nil {
				err = multierr.Append(err, mappingError("%s: more than one identity field", t.Name()))
				continue
			}
			metadata.idField = f.Index
		case hasDirective(directives, "labels"):
			if f.Type != stringSliceType {
				err = multierr.Append(err, mappingError("%s.%s: labels field must be []string", t.Name(), f.Name))
				continue
			}
			metadata.labelsField = f.Index
		case hasDirective(directives, "startNode"):
			if !isEntityPointer(f.Type) {
				err = multierr.Append(err, mappingError("%s.%s: start node must be a pointer to a struct", t.Name(), f.Name))
				continue
			}
			metadata.startNode = f.Index
			metadata.descriptor.StartNodeType = f.Type.Elem()
		case hasDirective(directives, "endNode"):
			if !isEntityPointer(f.Type) {
				err = multierr.Append(err, mappingError("%s.%s: end node must be a pointer to a struct", t.Name(), f.Name))
				continue
			}
			metadata.endNode = f.Index
			metadata.descriptor.EndNodeType = f.Type.Elem()
		case hasDirective(directives, "relationship") || isRelationshipShape(f.Type):
			rf, rfErr := newRelationshipField(t, f, directives)
			if rfErr != nil {
				err = multierr.Append(err, rfErr)
				continue
			}
			metadata.relationships = append(metadata.relationships, rf)
		case isPropertyType(f.Type):
			pf := propertyField{name: lowerCamel(f.Name), index: f.Index}
			if name := directives["name"]; name != "" {
				pf.name = name
			}
			if hasDirective(directives, "primary") {
				if metadata.descriptor.PrimaryIndex != "" {
					err = multierr.Append(err, mappingError("%s: more than one primary index", t.Name()))
					continue
				}
				pf.primary = true
				metadata.descriptor.PrimaryIndex = pf.name
				metadata.descriptor.Strategy = AssignedKeyStrategy
				if hasDirective(directives, "uuid") {
					if f.Type.Kind() != reflect.String {
						err = multierr.Append(err, mappingError("%s.%s: generated uuid key must be a string", t.Name(), f.Name))
						continue
					}
					metadata.descriptor.Strategy = UUIDStrategy
				}
			}
			metadata.properties = append(metadata.properties, pf)
		default:
			err = multierr.Append(err, mappingError("%s.%s: unsupported field type %s", t.Name(), f.Name, f.Type))
		}
	}

	if metadata.descriptor.IsRelationshipEntity {
		if metadata.descriptor.RelationshipType == "" {
			metadata.descriptor.RelationshipType = upperSnake(t.Name())
		}
		if metadata.startNode == nil || metadata.endNode == nil {
			err = multierr.Append(err, mappingError("%s: relationship entity needs a startNode and an endNode field", t.Name()))
		}
		if len(metadata.relationships) > 0 {
			err = multierr.Append(err, mappingError("%s: relationship entity cannot declare relationships", t.Name()))
		}
	} else if !marked || len(metadata.descriptor.Labels) == 0 {
		metadata.descriptor.Labels = []string{t.Name()}
	}

	return metadata, err
}

func newRelationshipField(t reflect.Type, f reflect.StructField, directives map[string]string) (relationshipField, error) {
	rf := relationshipField{
		name:         f.Name,
		index:        f.Index,
		declaredType: directives["relationship"],
		direction:    Outgoing,
	}

	switch {
	case isEntityPointer(f.Type):
		rf.target = f.Type.Elem()
	case f.Type.Kind() == reflect.Slice && isEntityPointer(f.Type.Elem()):
		rf.collection = true
		rf.target = f.Type.Elem().Elem()
	default:
		return rf, mappingError("%s.%s: relationship must be *T or []*T, got %s", t.Name(), f.Name, f.Type)
	}

	if direction, ok := directives["direction"]; ok {
		switch strings.ToUpper(direction) {
		case string(Outgoing):
			rf.direction = Outgoing
		case string(Incoming):
			rf.direction = Incoming
		case string(Undirected):
			rf.direction = Undirected
		default:
			return rf, mappingError("%s.%s: unknown direction %q", t.Name(), f.Name, direction)
		}
	}
	return rf, nil
}

func hasDirective(directives map[string]string, name string) bool {
	_, ok := directives[name]
	return ok
}

func isEntityPointer(t reflect.Type) bool {
	return t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Struct && t.Elem() != timeType
}

func isRelationshipShape(t reflect.Type) bool {
	return isEntityPointer(t) || (t.Kind() == reflect.Slice && isEntityPointer(t.Elem()))
}

func isPropertyType(t reflect.Type) bool {
	if t == timeType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Interface:
		return true
	case reflect.Ptr, reflect.Slice, reflect.Array:
		return isPropertyType(t.Elem())
	}
	return false
}

//upperSnake turns a Go identifier into a relationship type: collidesWith -> COLLIDES_WITH.
func upperSnake(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

//lowerCamel lowers the leading capitals of a Go identifier: Name -> name, URLPath -> urlPath, ID -> id.
func lowerCamel(name string) string {
	runes := []rune(name)
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func (m *entityMetadata) labels(v reflect.Value) []string {
	labels := append([]string{}, m.descriptor.Labels...)
	if m.labelsField == nil {
		return labels
	}
	seen := map[string]bool{}
	for _, label := range labels {
		seen[label] = true
	}
	for _, label := range v.FieldByIndex(m.labelsField).Interface().([]string) {
		if label != "" && !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	return labels
}

func (m *entityMetadata) propertyValues(v reflect.Value) []Property {
	properties := make([]Property, 0, len(m.properties))
	for _, pf := range m.properties {
		properties = append(properties, Property{Name: pf.name, Value: propertyValue(v.FieldByIndex(pf.index))})
	}
	return properties
}

func propertyValue(field reflect.Value) any {
	switch field.Kind() {
	case reflect.Ptr, reflect.Interface:
		if field.IsNil() {
			return nil
		}
		return propertyValue(field.Elem())
	case reflect.Slice:
		if field.IsNil() {
			return nil
		}
		return elementValues(field)
	case reflect.Array:
		return elementValues(field)
	}
	return field.Interface()
}

//elementValues dereferences pointer and interface elements so that the value is stored, not
//the address.
func elementValues(field reflect.Value) any {
	if kind := field.Type().Elem().Kind(); kind != reflect.Ptr && kind != reflect.Interface {
		return field.Interface()
	}
	values := make([]any, field.Len())
	for i := range values {
		values[i] = propertyValue(field.Index(i))
	}
	return values
}

func (m *entityMetadata) nativeID(v reflect.Value) (int64, bool) {
	if m.idField == nil {
		return 0, false
	}
	id := v.FieldByIndex(m.idField)
	if id.IsNil() {
		return 0, false
	}
	return id.Elem().Int(), true
}

func (m *entityMetadata) setNativeID(v reflect.Value, id int64) {
	if m.idField == nil {
		return
	}
	v.FieldByIndex(m.idField).Set(reflect.ValueOf(&id))
}

func (m *entityMetadata) primaryField() (propertyField, bool) {
	for _, pf := range m.properties {
		if pf.primary {
			return pf, true
		}
	}
	return propertyField{}, false
}

func (m *entityMetadata) endpoints(v reflect.Value) (any, any) {
	var start, end any
	if s := v.FieldByIndex(m.startNode); !s.IsNil() {
		start = s.Interface()
	}
	if e := v.FieldByIndex(m.endNode); !e.IsNil() {
		end = e.Interface()
	}
	return start, end
}

func relationshipTargets(field reflect.Value, collection bool) []any {
	var targets []any
	if !collection {
		if !field.IsNil() {
			targets = append(targets, field.Interface())
		}
		return targets
	}
	for i := 0; i < field.Len(); i++ {
		if element := field.Index(i); !element.IsNil() {
			targets = append(targets, element.Interface())
		}
	}
	return targets
}

//assignProperties hydrates the property fields of v from a property map read from the store.
//Properties without a matching field are ignored.
func (m *entityMetadata) assignProperties(v reflect.Value, props map[string]any) error {
	var err error
	for _, pf := range m.properties {
		value, ok := props[pf.name]
		if !ok {
			continue
		}
		field := v.FieldByIndex(pf.index)
		converted, convErr := convertValue(value, field.Type())
		if convErr != nil {
			err = multierr.Append(err, mappingError("%s.%s: %v", v.Type().Name(), pf.name, convErr))
			continue
		}
		field.Set(converted)
	}
	return err
}

type timeValued interface {
	Time() time.Time
}

//convertValue converts a value returned by the driver into a value assignable to t.
func convertValue(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	if tv, ok := value.(timeValued); ok && t == timeType {
		value = tv.Time()
	}

	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case t.Kind() == reflect.Ptr:
		element, err := convertValue(value, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(element)
		return ptr, nil
	case t.Kind() == reflect.Slice && rv.Kind() == reflect.Slice:
		slice := reflect.MakeSlice(t, rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			element, err := convertValue(rv.Index(i).Interface(), t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			slice.Index(i).Set(element)
		}
		return slice, nil
	case isNumeric(rv.Kind()) && isNumeric(t.Kind()):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, illegalArgument("cannot convert %T to %s", value, t)
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

//assignLabels stores the labels that are not declared on the type in the labels field.
func (m *entityMetadata) assignLabels(v reflect.Value, labels []string) {
	if m.labelsField == nil {
		return
	}
	static := map[string]bool{}
	for _, label := range m.descriptor.Labels {
		static[label] = true
	}
	var dynamic []string
	for _, label := range labels {
		if !static[label] {
			dynamic = append(dynamic, label)
		}
	}
	v.FieldByIndex(m.labelsField).Set(reflect.ValueOf(dynamic))
}

func (m *entityMetadata) assignEndpoints(v reflect.Value, start, end any) {
	v.FieldByIndex(m.startNode).Set(reflect.ValueOf(start))
	v.FieldByIndex(m.endNode).Set(reflect.ValueOf(end))
}

//addTarget sets a single valued relationship field, or appends to a collection unless the
//target is already present.
func addTarget(field reflect.Value, rf relationshipField, target any) {
	tv := reflect.ValueOf(target)
	if !rf.collection {
		field.Set(tv)
		return
	}
	for i := 0; i < field.Len(); i++ {
		if field.Index(i).Interface() == target {
			return
		}
	}
	field.Set(reflect.Append(field, tv))
}
