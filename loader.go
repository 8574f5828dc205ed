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

	"go.uber.org/zap"
)

type loader struct {
	runner   statementRunner
	registry *Registry
	context  *MappingContext
	mapper   *graphEntityMapper
	logger   *zap.Logger
}

func newLoader(runner statementRunner, registry *Registry, context *MappingContext, mapper *graphEntityMapper, logger *zap.Logger) *loader {
	return &loader{runner, registry, context, mapper, logger}
}

//Precondition: object is **<domainObject>. The loaded object, or nil, is stored in *object.
func (l *loader) load(object any, id any, loadOptions *LoadOptions) error {
	if loadOptions == nil {
		loadOptions = NewLoadOptions()
	}
	v := reflect.ValueOf(object)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Ptr || v.Elem().Type().Elem().Kind() != reflect.Struct {
		return illegalArgument("load expects **<domainObject>, got %T", object)
	}
	t := v.Elem().Type().Elem()

	metadata, err := l.registry.metadataFor(t)
	if err != nil {
		return err
	}

	statements, rootKey := l.statementsFor(metadata, loadOptions.Depth)
	query, err := statements.FindOne(id, loadOptions.Depth)
	if err != nil {
		return err
	}

	roots, err := l.execute(query.Statement(), metadata, rootKey)
	if err != nil {
		return err
	}
	for _, root := range roots {
		if reflect.TypeOf(root).Elem() == t {
			v.Elem().Set(reflect.ValueOf(root))
			return nil
		}
	}
	v.Elem().Set(reflect.Zero(v.Elem().Type()))
	return notFound("no %s with id %v", t.Name(), id)
}

//Precondition: objects is *[]*<domainObject>. ids is nil, or a []int64 of native ids.
func (l *loader) loadAll(objects any, ids any, loadOptions *LoadOptions) error {
	if loadOptions == nil {
		loadOptions = NewLoadOptions()
	}
	v := reflect.ValueOf(objects)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Slice || !isEntityPointer(v.Elem().Type().Elem()) {
		return illegalArgument("loadAll expects *[]*<domainObject>, got %T", objects)
	}
	t := v.Elem().Type().Elem().Elem()

	metadata, err := l.registry.metadataFor(t)
	if err != nil {
		return err
	}

	statements, rootKey := l.statementsFor(metadata, loadOptions.Depth)
	typ := metadata.descriptor.RelationshipType
	if !metadata.descriptor.IsRelationshipEntity {
		typ = metadata.descriptor.Labels[0]
	}

	var query *PagingAndSortingQuery
	switch {
	case ids != nil:
		nativeIDs, ok := ids.([]int64)
		if !ok {
			return illegalArgument("ids must be []int64, got %T", ids)
		}
		query, err = statements.FindAllByType(typ, nativeIDs, loadOptions.Depth)
	case len(loadOptions.Filters) > 0:
		query, err = statements.FindByTypeAndFilters(typ, loadOptions.Filters, loadOptions.Depth)
	default:
		query, err = statements.FindByType(typ, loadOptions.Depth)
	}
	if err != nil {
		return err
	}
	query.SetSortOrder(loadOptions.SortOrder).SetPagination(loadOptions.Pagination)

	roots, err := l.execute(query.Statement(), metadata, rootKey)
	if err != nil {
		return err
	}
	loaded := reflect.MakeSlice(v.Elem().Type(), 0, len(roots))
	for _, root := range roots {
		if reflect.TypeOf(root).Elem() == t {
			loaded = reflect.Append(loaded, reflect.ValueOf(root))
		}
	}
	v.Elem().Set(loaded)
	return nil
}

//reload refreshes registered objects from the store, one hop deep.
func (l *loader) reload(objects ...any) error {
	for _, object := range objects {
		id, ok := l.context.NativeIDOf(object)
		if !ok {
			return illegalArgument("cannot reload %T, it was never saved or loaded", object)
		}
		metadata, _, err := l.registry.metadataOf(object)
		if err != nil {
			return err
		}
		statements, rootKey := l.statementsFor(metadata, defaultLoadDepth)
		if !metadata.descriptor.IsRelationshipEntity {
			statements = NewNodeQueryStatements("")
		}
		query, err := statements.FindOne(id, defaultLoadDepth)
		if err != nil {
			return err
		}
		if _, err = l.execute(query.Statement(), metadata, rootKey); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) statementsFor(metadata *entityMetadata, depth int) (QueryStatements, string) {
	if metadata.descriptor.IsRelationshipEntity {
		return NewRelationshipQueryStatements(), relationshipRootKey
	}
	if depth == 0 {
		return NewNodeQueryStatements(metadata.descriptor.PrimaryIndex), ""
	}
	return NewNodeQueryStatements(metadata.descriptor.PrimaryIndex), nodeRootKey
}

func (l *loader) execute(statement Statement, metadata *entityMetadata, rootKey string) ([]any, error) {
	records, err := l.runner.run(statement)
	if err != nil {
		return nil, err
	}
	g := newGraphModelFromRecords(records, rootKey)
	if err = l.mapper.mapGraph(g); err != nil {
		return nil, err
	}
	l.logger.Debug("loaded graph", zap.Int("nodes", len(g.nodes)), zap.Int("relationships", len(g.relationships)), zap.Int("roots", len(g.roots)+len(g.relRoots)))
	if metadata.descriptor.IsRelationshipEntity {
		return l.mapper.rootRelationshipEntities(g), nil
	}
	return l.mapper.rootNodes(g), nil
}
