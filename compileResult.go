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

type nodeBuilder struct {
	object   any
	ref      int64
	existing bool
	horizon  int
}

type relationshipBuilder struct {
	start            *nodeBuilder
	end              *nodeBuilder
	relationshipType string
	ref              int64
	object           any
}

type persistedEntity struct {
	object any
	id     int64
}

//CompileResult holds the write batches of one compilation and the bookkeeping needed to fold
//the outcome of executing them back into a MappingContext.
type CompileResult struct {
	CreateNodeBatches         []*StatementBatch
	UpdateNodeBatches         []*StatementBatch
	CreateRelationshipBatches []*StatementBatch
	UpdateRelationshipBatches []*StatementBatch
	DeleteRelationshipBatches []*StatementBatch

	newObjects                  map[int64]any
	generatedKeys               map[int64]string
	resolved                    map[int64]int64
	updatedNodes                []persistedEntity
	newRelationships            []*relationshipBuilder
	updatedRelationshipEntities []persistedEntity
	deletedRelationships        []MappedRelationship
}

func newCompileResult() *CompileResult {
	return &CompileResult{
		newObjects:    map[int64]any{},
		generatedKeys: map[int64]string{},
		resolved:      map[int64]int64{},
	}
}

//Statements returns every batch in execution order: node creates, relationship creates,
//node updates, relationship updates, relationship deletes.
func (r *CompileResult) Statements() []*StatementBatch {
	var batches []*StatementBatch
	batches = append(batches, r.CreateNodeBatches...)
	batches = append(batches, r.CreateRelationshipBatches...)
	batches = append(batches, r.UpdateNodeBatches...)
	batches = append(batches, r.UpdateRelationshipBatches...)
	return append(batches, r.DeleteRelationshipBatches...)
}

func (r *CompileResult) Empty() bool {
	return len(r.Statements()) == 0
}

//DependentOnNewNodes reports whether relationship batches reference nodes that are created by
//this result and have not been resolved with ResolveNewNodeIDs yet.
func (r *CompileResult) DependentOnNewNodes() bool {
	for _, batch := range r.CreateRelationshipBatches {
		if batch.DependentOnNewNodes() {
			return true
		}
	}
	return false
}

//NewObject returns the object created under a temporary reference.
func (r *CompileResult) NewObject(ref int64) (any, bool) {
	object, ok := r.newObjects[ref]
	return object, ok
}

//DeletedRelationships lists the relationships the delete batches remove.
func (r *CompileResult) DeletedRelationships() []MappedRelationship {
	return r.deletedRelationships
}

//ResolveNewNodeIDs replaces temporary node references in relationship rows with the native
//ids returned by executing the node create batches.
func (r *CompileResult) ResolveNewNodeIDs(ids map[int64]int64) error {
	for ref, id := range ids {
		r.resolved[ref] = id
	}
	for _, batch := range r.CreateRelationshipBatches {
		for _, row := range batch.Rows {
			for _, key := range []string{startNodeIDKey, endNodeIDKey} {
				ref, ok := row[key].(int64)
				if !ok || ref >= 0 {
					continue
				}
				id, found := r.resolved[ref]
				if !found {
					return illegalArgument("no native id returned for new node reference %d", ref)
				}
				row[key] = id
			}
		}
	}
	return nil
}

func (r *CompileResult) resolve(b *nodeBuilder) (int64, error) {
	if b.existing {
		return b.ref, nil
	}
	if id, ok := r.resolved[b.ref]; ok {
		return id, nil
	}
	return 0, illegalArgument("node reference %d was never resolved", b.ref)
}
