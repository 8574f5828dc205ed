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
	"regexp"
	"strings"
)

type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

type sortClause struct {
	direction  SortDirection
	properties []string
}

//SortOrder is an ordered list of sort keys.
type SortOrder struct {
	clauses []sortClause
}

func NewSortOrder() *SortOrder {
	return &SortOrder{}
}

//Add sorts by properties in direction, after any keys added before.
func (s *SortOrder) Add(direction SortDirection, properties ...string) *SortOrder {
	s.clauses = append(s.clauses, sortClause{direction, properties})
	return s
}

func (s *SortOrder) Asc(properties ...string) *SortOrder {
	return s.Add(Ascending, properties...)
}

func (s *SortOrder) Desc(properties ...string) *SortOrder {
	return s.Add(Descending, properties...)
}

func (s *SortOrder) empty() bool {
	return s == nil || len(s.clauses) == 0
}

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (s *SortOrder) cypher(identifier string) string {
	var keys []string
	for _, clause := range s.clauses {
		for _, property := range clause.properties {
			if !plainIdentifier.MatchString(property) {
				property = quote(property)
			}
			key := identifier + "." + property
			if clause.direction == Descending {
				key += " DESC"
			}
			keys = append(keys, key)
		}
	}
	return "ORDER BY " + strings.Join(keys, ", ")
}
