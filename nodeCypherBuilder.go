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
	"strings"
)

const (
	nodeRefKey     = "nodeRef"
	nodeIDKey      = "nodeId"
	propsKey       = "props"
	startNodeIDKey = "startNodeId"
	endNodeIDKey   = "endNodeId"
	relRefKey      = "relRef"
	relIDKey       = "relId"
)

//quote renders a name as an escaped cypher identifier.
func quote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func labelSignature(labels []string) string {
	quoted := make([]string, len(labels))
	for i, label := range labels {
		quoted[i] = quote(label)
	}
	return strings.Join(quoted, ":")
}

//newNodesCypher creates one node per row. With a merge key, nodes are merged on that property.
func newNodesCypher(labels []string, mergeKey string) string {
	var b strings.Builder
	b.WriteString("UNWIND $rows as row ")
	if mergeKey == "" {
		b.WriteString("CREATE (n:" + labelSignature(labels) + ")")
	} else {
		b.WriteString("MERGE (n:" + labelSignature(labels) + " {" + quote(mergeKey) + ": row.props." + quote(mergeKey) + "})")
	}
	b.WriteString(" SET n=row.props RETURN row.nodeRef as ref, ID(n) as id, $type as type")
	return b.String()
}

func existingNodesCypher(labels []string, removedLabels []string) string {
	var b strings.Builder
	b.WriteString("UNWIND $rows as row MATCH (n) WHERE ID(n)=row.nodeId")
	if len(labels) > 0 {
		b.WriteString(" SET n:" + labelSignature(labels))
	}
	if len(removedLabels) > 0 {
		b.WriteString(" REMOVE n:" + labelSignature(removedLabels))
	}
	b.WriteString(" SET n += row.props RETURN row.nodeId as ref, ID(n) as id, $type as type")
	return b.String()
}

func newNodeKey(labels []string, mergeKey string) string {
	key := labelSignature(labels)
	if mergeKey != "" {
		key += "{" + mergeKey + "}"
	}
	return key
}

func existingNodeKey(labels []string, removedLabels []string) string {
	key := labelSignature(labels)
	if len(removedLabels) > 0 {
		key += "-" + labelSignature(removedLabels)
	}
	return key
}

func propertyMap(properties []Property) map[string]any {
	props := make(map[string]any, len(properties))
	for _, property := range properties {
		props[property.Name] = property.Value
	}
	return props
}
