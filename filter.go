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
	"strconv"
	"strings"
)

//ComparisonOperator compares a property with a filter value.
type ComparisonOperator int

const (
	Equals ComparisonOperator = iota
	GreaterThan
	GreaterThanEqual
	LessThan
	LessThanEqual
	//Like matches a case insensitive pattern in which * stands for any run of characters. Every
	//other character, regex metacharacters included, matches only itself: a.b does not match axb.
	Like
	StartingWith
	EndingWith
	Containing
	In
	IsNull
	Exists
)

func (o ComparisonOperator) cypher() string {
	switch o {
	case GreaterThan:
		return ">"
	case GreaterThanEqual:
		return ">="
	case LessThan:
		return "<"
	case LessThanEqual:
		return "<="
	case Like:
		return "=~"
	case StartingWith:
		return "STARTS WITH"
	case EndingWith:
		return "ENDS WITH"
	case Containing:
		return "CONTAINS"
	case In:
		return "IN"
	}
	return "="
}

//BooleanOperator joins a filter to the one before it.
type BooleanOperator int

const (
	//None is only valid on the first filter, which is then combined as AND.
	None BooleanOperator = iota
	AndOperator
	OrOperator
)

func (o BooleanOperator) cypher() string {
	if o == OrOperator {
		return "OR"
	}
	return "AND"
}

//NestedPath points a filter at a node one relationship hop away from the queried entity, or at
//the properties of the relationship entity on that hop.
type NestedPath struct {
	//PropertyName is the relationship attribute name on the queried entity.
	PropertyName       string
	Label              string
	RelationshipType   string
	Direction          Direction
	RelationshipEntity bool
}

//DistanceComparison filters on the distance between a node's point and a location.
type DistanceComparison struct {
	Latitude  float64
	Longitude float64
	Distance  float64
}

//Filter is one predicate of a filtered query.
type Filter struct {
	PropertyName    string
	Operator        ComparisonOperator
	Value           any
	Function        *DistanceComparison
	BooleanOperator BooleanOperator
	Negated         bool
	Nested          *NestedPath
}

//Filters is an ordered list of predicates combined left to right.
type Filters []*Filter

func NewFilter(propertyName string, operator ComparisonOperator, value any) *Filter {
	return &Filter{PropertyName: propertyName, Operator: operator, Value: value}
}

//NewDistanceFilter filters nodes whose point lies within distance of the given location.
func NewDistanceFilter(operator ComparisonOperator, function DistanceComparison) *Filter {
	return &Filter{Operator: operator, Function: &function}
}

func (f *Filter) Not() *Filter {
	f.Negated = true
	return f
}

//Through makes the filter apply to the entity reached over path.
func (f *Filter) Through(path NestedPath) *Filter {
	f.Nested = &path
	return f
}

func NewFilters(first *Filter) Filters {
	return Filters{first}
}

func (fs Filters) And(f *Filter) Filters {
	f.BooleanOperator = AndOperator
	return append(fs, f)
}

func (fs Filters) Or(f *Filter) Filters {
	f.BooleanOperator = OrOperator
	return append(fs, f)
}

func (f *Filter) isNested() bool {
	return f.Nested != nil
}

var unsafeParameterCharacters = regexp.MustCompile(`[^A-Za-z0-9_]`)

//parameterName is unique per filter position so the same property can be filtered twice.
func (f *Filter) parameterName(index int) string {
	name := f.PropertyName
	if f.Function != nil {
		name = "distance"
	}
	if f.isNested() {
		name = f.Nested.PropertyName + "_" + name
	}
	return unsafeParameterCharacters.ReplaceAllString(name, "_") + "_" + strconv.Itoa(index)
}

//predicate renders the filter against identifier and returns the parameters it binds.
func (f *Filter) predicate(identifier string, parameter string) (string, map[string]any) {
	var (
		expression string
		parameters = map[string]any{}
		property   = identifier + "." + quote(f.PropertyName)
	)

	switch {
	case f.Function != nil:
		expression = "distance(point(" + identifier + "),point({latitude: $" + parameter + "_latitude, longitude: $" + parameter + "_longitude})) " +
			f.Operator.cypher() + " $" + parameter
		parameters[parameter+"_latitude"] = f.Function.Latitude
		parameters[parameter+"_longitude"] = f.Function.Longitude
		parameters[parameter] = f.Function.Distance
	case f.Operator == IsNull:
		expression = property + " IS NULL"
	case f.Operator == Exists:
		expression = "EXISTS(" + property + ")"
	default:
		expression = property + " " + f.Operator.cypher() + " $" + parameter
		parameters[parameter] = f.transformedValue()
	}

	if f.Negated {
		expression = "NOT(" + expression + ")"
	}
	return expression, parameters
}

func (f *Filter) transformedValue() any {
	if f.Operator != Like {
		return f.Value
	}
	pattern, ok := f.Value.(string)
	if !ok {
		return f.Value
	}
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return "(?i)" + strings.Join(parts, ".*")
}
