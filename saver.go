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
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

type saver struct {
	runner   statementRunner
	context  *MappingContext
	registry *Registry
	compiler *Compiler
	eventer  *eventer
	logger   *zap.Logger
}

func newSaver(runner statementRunner, context *MappingContext, registry *Registry, compiler *Compiler, eventer *eventer, logger *zap.Logger) *saver {
	return &saver{runner, context, registry, compiler, eventer, logger}
}

//save persists object, or every element when object is a slice, and folds the outcome back
//into the mapping context.
func (s *saver) save(object any, saveOptions *SaveOptions) error {
	if saveOptions == nil {
		saveOptions = NewSaveOptions()
	}

	if v := reflect.ValueOf(object); v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			if err := s.save(v.Index(i).Interface(), saveOptions); err != nil {
				return err
			}
		}
		return nil
	}

	result, err := s.compiler.Compile(object, s.context, saveOptions.Depth)
	if err != nil {
		return err
	}
	if result.Empty() {
		s.logger.Debug("nothing to save")
		return nil
	}
	if err = s.notifyPreSave(result); err != nil {
		return err
	}

	nodeIDs, err := s.persist(result.CreateNodeBatches)
	if err != nil {
		return err
	}
	if err = result.ResolveNewNodeIDs(nodeIDs); err != nil {
		return err
	}
	relationshipIDs, err := s.persist(result.CreateRelationshipBatches)
	if err != nil {
		return err
	}
	for _, batches := range [][]*StatementBatch{result.UpdateNodeBatches, result.UpdateRelationshipBatches, result.DeleteRelationshipBatches} {
		if _, err = s.persist(batches); err != nil {
			return err
		}
	}

	return s.fold(result, nodeIDs, relationshipIDs)
}

//persist runs batches and maps the returned references to native ids.
func (s *saver) persist(batches []*StatementBatch) (map[int64]int64, error) {
	ids := map[int64]int64{}
	for _, batch := range batches {
		records, err := s.runner.run(batch.Statement())
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", batch.Operation, batch.Key, err)
		}
		for _, record := range records {
			ref, hasRef := record.Get("ref")
			id, hasID := record.Get("id")
			if !hasRef || !hasID {
				continue
			}
			refValue, refOK := ref.(int64)
			idValue, idOK := id.(int64)
			if refOK && idOK {
				ids[refValue] = idValue
			}
		}
		s.logger.Debug("batch executed", zap.Stringer("operation", batch.Operation), zap.String("key", batch.Key), zap.Int("rows", len(batch.Rows)))
	}
	return ids, nil
}

func (s *saver) notifyPreSave(result *CompileResult) error {
	for _, batch := range result.CreateNodeBatches {
		for _, row := range batch.Rows {
			if object, ok := result.NewObject(row[nodeRefKey].(int64)); ok {
				if err := s.eventer.preSave(object, CREATE); err != nil {
					return err
				}
			}
		}
	}
	for _, entity := range result.updatedNodes {
		if err := s.eventer.preSave(entity.object, UPDATE); err != nil {
			return err
		}
	}
	for _, rb := range result.newRelationships {
		if rb.object != nil {
			if err := s.eventer.preSave(rb.object, CREATE); err != nil {
				return err
			}
		}
	}
	for _, entity := range result.updatedRelationshipEntities {
		if err := s.eventer.preSave(entity.object, UPDATE); err != nil {
			return err
		}
	}
	return nil
}

//fold writes generated identities back into the saved objects and records the new persisted
//state in the mapping context.
func (s *saver) fold(result *CompileResult, nodeIDs map[int64]int64, relationshipIDs map[int64]int64) error {
	for _, batch := range result.CreateNodeBatches {
		for _, row := range batch.Rows {
			ref := row[nodeRefKey].(int64)
			id, ok := nodeIDs[ref]
			if !ok {
				return illegalArgument("no native id returned for new node reference %d", ref)
			}
			object, _ := result.NewObject(ref)
			if err := s.registry.SetNativeID(object, id); err != nil {
				return err
			}
			if key, generated := result.generatedKeys[ref]; generated {
				if err := s.registry.setPrimaryKey(object, key); err != nil {
					return err
				}
			}
			if err := s.context.RegisterNode(object, id); err != nil {
				return err
			}
			s.eventer.postSave(object, CREATE)
		}
	}

	for _, entity := range result.updatedNodes {
		if err := s.context.RegisterNode(entity.object, entity.id); err != nil {
			return err
		}
		s.eventer.postSave(entity.object, UPDATE)
	}

	for _, r := range result.deletedRelationships {
		s.context.DeregisterRelationship(r)
	}

	for _, rb := range result.newRelationships {
		start, err := result.resolve(rb.start)
		if err != nil {
			return err
		}
		end, err := result.resolve(rb.end)
		if err != nil {
			return err
		}
		mapped := NewMappedRelationship(start, rb.relationshipType, end)
		if rb.object == nil {
			s.context.RegisterRelationship(mapped)
			continue
		}
		id, ok := relationshipIDs[rb.ref]
		if !ok {
			return illegalArgument("no native id returned for new relationship reference %d", rb.ref)
		}
		if err = s.registry.SetNativeID(rb.object, id); err != nil {
			return err
		}
		if err = s.context.RegisterRelationshipEntity(rb.object, id); err != nil {
			return err
		}
		s.context.RegisterRelationship(mapped.WithRelationshipID(id))
		s.eventer.postSave(rb.object, CREATE)
	}

	for _, entity := range result.updatedRelationshipEntities {
		if err := s.context.RegisterRelationshipEntity(entity.object, entity.id); err != nil {
			return err
		}
		s.eventer.postSave(entity.object, UPDATE)
	}
	return nil
}
