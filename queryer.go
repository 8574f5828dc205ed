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
	"go.uber.org/zap"
)

type queryer struct {
	runner   statementRunner
	registry *Registry
	context  *MappingContext
	mapper   *graphEntityMapper
	logger   *zap.Logger
}

func newQueryer(runner statementRunner, registry *Registry, context *MappingContext, mapper *graphEntityMapper, logger *zap.Logger) *queryer {
	return &queryer{runner, registry, context, mapper, logger}
}

func (q *queryer) queryForObject(object any, cypher string, parameters map[string]any) error {
	v := reflect.ValueOf(object)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || !isEntityPointer(v.Elem().Type()) {
		return illegalArgument("queryForObject expects **<domainObject>, got %T", object)
	}
	objects, err := q.objectsOf(v.Elem().Type().Elem(), cypher, parameters)
	if err != nil {
		return err
	}
	switch len(objects) {
	case 0:
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
		return nil
	case 1:
		v.Elem().Set(reflect.ValueOf(objects[0]))
		return nil
	}
	return illegalArgument("result contains %d objects, expected at most one", len(objects))
}

func (q *queryer) queryForObjects(objects any, cypher string, parameters map[string]any) error {
	v := reflect.ValueOf(objects)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Slice || !isEntityPointer(v.Elem().Type().Elem()) {
		return illegalArgument("queryForObjects expects *[]*<domainObject>, got %T", objects)
	}
	found, err := q.objectsOf(v.Elem().Type().Elem().Elem(), cypher, parameters)
	if err != nil {
		return err
	}
	loaded := reflect.MakeSlice(v.Elem().Type(), 0, len(found))
	for _, object := range found {
		loaded = reflect.Append(loaded, reflect.ValueOf(object))
	}
	v.Elem().Set(loaded)
	return nil
}

//objectsOf maps the result of cypher and returns the objects of type t that were returned in
//columns of their own.
func (q *queryer) objectsOf(t reflect.Type, cypher string, parameters map[string]any) ([]any, error) {
	metadata, err := q.registry.metadataFor(t)
	if err != nil {
		return nil, err
	}
	records, err := q.runner.run(Statement{cypher, parameters})
	if err != nil {
		return nil, err
	}
	g := newGraphModelFromRecords(records, "")
	if err = q.mapper.mapGraph(g); err != nil {
		return nil, err
	}

	roots := q.mapper.rootNodes(g)
	if metadata.descriptor.IsRelationshipEntity {
		roots = q.mapper.rootRelationshipEntities(g)
	}
	var objects []any
	for _, root := range roots {
		if reflect.TypeOf(root).Elem() == t {
			objects = append(objects, root)
		}
	}
	return objects, nil
}

//query runs cypher and returns one map per record. Nodes and relationships of registered
//types are replaced by their domain objects.
func (q *queryer) query(cypher string, parameters map[string]any) ([]map[string]any, error) {
	records, err := q.runner.run(Statement{cypher, parameters})
	if err != nil {
		return nil, err
	}
	g := newGraphModelFromRecords(records, "")
	if err = q.mapper.mapGraph(g); err != nil {
		return nil, err
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		row := make(map[string]any, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = q.domainValue(record.Values[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (q *queryer) domainValue(value any) any {
	switch v := value.(type) {
	case neo4j.Node:
		if object, ok := q.context.NodeByID(v.Id); ok {
			return object
		}
	case neo4j.Relationship:
		if object, ok := q.context.RelationshipEntityByID(v.Id); ok {
			return object
		}
	case []any:
		mapped := make([]any, len(v))
		for i, element := range v {
			mapped[i] = q.domainValue(element)
		}
		return mapped
	}
	return value
}

func (q *queryer) countEntitiesOfType(object any) (int64, error) {
	t := reflect.TypeOf(object)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil {
		return 0, illegalArgument("cannot count entities of nil")
	}
	metadata, err := q.registry.metadataFor(t)
	if err != nil {
		return 0, err
	}
	if metadata.descriptor.IsRelationshipEntity {
		return q.countStatement(CountStatements{}.CountEdges(metadata.descriptor.RelationshipType))
	}
	return q.countStatement(CountStatements{}.CountNodes(metadata.descriptor.Labels...))
}

func (q *queryer) count(cypher string, parameters map[string]any) (int64, error) {
	return q.countStatement(Statement{cypher, parameters})
}

func (q *queryer) countStatement(statement Statement) (int64, error) {
	records, err := q.runner.run(statement)
	if err != nil {
		return 0, err
	}
	if len(records) != 1 || len(records[0].Values) != 1 {
		return 0, illegalArgument("count expects one record with one column, got %d records", len(records))
	}
	count, ok := records[0].Values[0].(int64)
	if !ok {
		return 0, illegalArgument("count returned %T, expected int64", records[0].Values[0])
	}
	return count, nil
}
