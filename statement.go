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

//Statement is a parameterized cypher statement.
type Statement struct {
	Cypher     string
	Parameters map[string]any
}

//Operation is the kind of write a StatementBatch performs.
type Operation int

const (
	CreateNodes Operation = iota
	UpdateNodes
	CreateRelationships
	UpdateRelationships
	DeleteRelationships
)

func (o Operation) String() string {
	switch o {
	case CreateNodes:
		return "createNodes"
	case UpdateNodes:
		return "updateNodes"
	case CreateRelationships:
		return "createRelationships"
	case UpdateRelationships:
		return "updateRelationships"
	}
	return "deleteRelationships"
}

const (
	rowsParameter = "rows"
	typeParameter = "type"
	nodeRowType   = "node"
	relRowType    = "rel"
)

//StatementBatch is one row-batch write: a single template executed once over all of its rows.
type StatementBatch struct {
	Operation Operation
	//Key is the label signature or relationship type the rows share.
	Key    string
	Cypher string
	Rows   []map[string]any
}

//Statement returns the batch as a statement with the rows bound to $rows.
func (b *StatementBatch) Statement() Statement {
	rows := make([]any, len(b.Rows))
	for i, row := range b.Rows {
		rows[i] = row
	}
	rowType := relRowType
	if b.Operation == CreateNodes || b.Operation == UpdateNodes {
		rowType = nodeRowType
	}
	return Statement{
		Cypher:     b.Cypher,
		Parameters: map[string]any{rowsParameter: rows, typeParameter: rowType},
	}
}

//DependentOnNewNodes reports whether a row still references a node by its temporary token.
func (b *StatementBatch) DependentOnNewNodes() bool {
	if b.Operation != CreateRelationships {
		return false
	}
	for _, row := range b.Rows {
		if isTemporaryRef(row[startNodeIDKey]) || isTemporaryRef(row[endNodeIDKey]) {
			return true
		}
	}
	return false
}

func isTemporaryRef(value any) bool {
	ref, ok := value.(int64)
	return ok && ref < 0
}

//batchGroup collects rows per key, keeping keys in first-seen order.
type batchGroup struct {
	operation Operation
	batches   []*StatementBatch
	index     map[string]*StatementBatch
}

func newBatchGroup(operation Operation) *batchGroup {
	return &batchGroup{operation: operation, index: map[string]*StatementBatch{}}
}

func (g *batchGroup) add(key string, cypher func() string, row map[string]any) {
	batch := g.index[key]
	if batch == nil {
		batch = &StatementBatch{Operation: g.operation, Key: key, Cypher: cypher()}
		g.index[key] = batch
		g.batches = append(g.batches, batch)
	}
	batch.Rows = append(batch.Rows, row)
}
