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
	"hash/fnv"
	"sort"
)

//entityMemo keeps a snapshot hash per persisted node and relationship entity. An entity is
//dirty when its current hash differs from the remembered one, or when nothing was remembered.
type entityMemo struct {
	metadata      MetadataProvider
	nodes         map[int64]uint64
	relationships map[int64]uint64
}

func newEntityMemo(metadata MetadataProvider) *entityMemo {
	return &entityMemo{
		metadata:      metadata,
		nodes:         map[int64]uint64{},
		relationships: map[int64]uint64{},
	}
}

func (m *entityMemo) rememberNode(id int64, object any) error {
	hash, err := m.hash(object, true)
	if err != nil {
		return err
	}
	m.nodes[id] = hash
	return nil
}

func (m *entityMemo) rememberRelationship(id int64, object any) error {
	hash, err := m.hash(object, false)
	if err != nil {
		return err
	}
	m.relationships[id] = hash
	return nil
}

func (m *entityMemo) nodeChanged(id int64, object any) bool {
	remembered, ok := m.nodes[id]
	if !ok {
		return true
	}
	hash, err := m.hash(object, true)
	return err != nil || hash != remembered
}

func (m *entityMemo) relationshipChanged(id int64, object any) bool {
	remembered, ok := m.relationships[id]
	if !ok {
		return true
	}
	hash, err := m.hash(object, false)
	return err != nil || hash != remembered
}

func (m *entityMemo) forgetNode(id int64) {
	delete(m.nodes, id)
}

func (m *entityMemo) forgetRelationship(id int64) {
	delete(m.relationships, id)
}

func (m *entityMemo) clear() {
	m.nodes = map[int64]uint64{}
	m.relationships = map[int64]uint64{}
}

//Hashes the persistable properties in declaration order, followed by the sorted label set.
func (m *entityMemo) hash(object any, withLabels bool) (uint64, error) {
	properties, err := m.metadata.PropertiesOf(object)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	for _, property := range properties {
		fmt.Fprintf(h, "%s\x00%#v\x00", property.Name, property.Value)
	}
	if withLabels {
		labels, err := m.metadata.LabelsOf(object)
		if err != nil {
			return 0, err
		}
		sorted := append([]string{}, labels...)
		sort.Strings(sorted)
		for _, label := range sorted {
			fmt.Fprintf(h, ":%s", label)
		}
	}
	return h.Sum64(), nil
}
