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

//newRelationshipsCypher relates the endpoints of each row. Plain relationships are merged so
//that saving twice never creates a parallel edge; relationship entities are always created
//and carry their properties.
func newRelationshipsCypher(relationshipType string, entity bool) string {
	cypher := "UNWIND $rows as row MATCH (startNode) WHERE ID(startNode) = row.startNodeId WITH row,startNode " +
		"MATCH (endNode) WHERE ID(endNode) = row.endNodeId "
	if entity {
		cypher += "CREATE (startNode)-[rel:" + quote(relationshipType) + "]->(endNode) SET rel += row.props "
	} else {
		cypher += "MERGE (startNode)-[rel:" + quote(relationshipType) + "]->(endNode) "
	}
	return cypher + "RETURN row.relRef as ref, ID(rel) as id, $type as type"
}

func existingRelationshipsCypher() string {
	return "UNWIND $rows as row MATCH ()-[r]->() WHERE ID(r) = row.relId SET r += row.props " +
		"RETURN ID(r) as ref, ID(r) as id, $type as type"
}

func deletedRelationshipsCypher(relationshipType string) string {
	return "UNWIND $rows as row MATCH (startNode) WHERE ID(startNode) = row.startNodeId WITH row,startNode " +
		"MATCH (startNode)-[rel:" + quote(relationshipType) + "]->(endNode) WHERE ID(endNode) = row.endNodeId " +
		"DELETE rel RETURN ID(rel) as ref, ID(rel) as id, $type as type"
}

func deletedRelationshipEntitiesCypher() string {
	return "UNWIND $rows as row MATCH ()-[r]->() WHERE ID(r) = row.relId DELETE r " +
		"RETURN ID(r) as ref, ID(r) as id, $type as type"
}

func relationshipKey(relationshipType string, entity bool) string {
	if entity {
		return relationshipType + "{entity}"
	}
	return relationshipType
}
