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

type deleter struct {
	runner   statementRunner
	registry *Registry
	context  *MappingContext
	eventer  *eventer
	logger   *zap.Logger
}

func newDeleter(runner statementRunner, registry *Registry, context *MappingContext, eventer *eventer, logger *zap.Logger) *deleter {
	return &deleter{runner, registry, context, eventer, logger}
}

//delete removes a persisted node with its relationships, or a relationship entity. A slice
//deletes each of its elements.
func (d *deleter) delete(object any) error {
	if v := reflect.ValueOf(object); v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if err := d.delete(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}

	metadata, v, err := d.registry.metadataOf(object)
	if err != nil {
		return err
	}
	id, ok := d.context.NativeIDOf(object)
	if !ok {
		if id, ok = metadata.nativeID(v); !ok {
			return illegalArgument("cannot delete %s, it has no native id", v.Type().Name())
		}
	}

	if err = d.eventer.preDelete(object); err != nil {
		return err
	}

	if metadata.descriptor.IsRelationshipEntity {
		if _, err = d.runner.run(RelationshipDeleteStatements{}.Delete(id)); err != nil {
			return err
		}
		if r, known := d.context.RelationshipByID(id); known {
			d.context.DeregisterRelationship(r)
		}
	} else {
		if _, err = d.runner.run(NodeDeleteStatements{}.Delete(id)); err != nil {
			return err
		}
		d.context.RemoveNode(object)
	}
	d.logger.Debug("deleted", zap.String("type", v.Type().Name()), zap.Int64("id", id))

	d.eventer.postDelete(object)
	return nil
}

//deleteAll removes every entity of object's type, which is given as *<domainObject> or
//*[]*<domainObject>. Entities of that type are forgotten by the mapping context.
func (d *deleter) deleteAll(object any, deleteOptions *DeleteOptions) error {
	t := reflect.TypeOf(object)
	for t != nil && (t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice) {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return illegalArgument("deleteAll expects *<domainObject> or *[]*<domainObject>, got %T", object)
	}
	metadata, err := d.registry.metadataFor(t)
	if err != nil {
		return err
	}

	var statements DeleteStatements = NodeDeleteStatements{}
	typ := ""
	if metadata.descriptor.IsRelationshipEntity {
		statements = RelationshipDeleteStatements{}
		typ = metadata.descriptor.RelationshipType
	} else {
		typ = metadata.descriptor.Labels[0]
	}

	var statement Statement
	if deleteOptions != nil && len(deleteOptions.Filters) > 0 {
		if statement, err = statements.DeleteByTypeAndFilters(typ, deleteOptions.Filters); err != nil {
			return err
		}
	} else {
		statement = statements.DeleteByType(typ)
	}
	if _, err = d.runner.run(statement); err != nil {
		return err
	}

	d.context.RemoveEntitiesOfType(t)
	return nil
}

func (d *deleter) purgeDatabase() error {
	if _, err := d.runner.run(NodeDeleteStatements{}.Purge()); err != nil {
		return err
	}
	d.context.Clear()
	return nil
}
