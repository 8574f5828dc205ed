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

const (
	infiniteDepth    = -1
	defaultLoadDepth = 1
)

//SaveOptions bounds how far a save walks from the saved object. A negative depth walks the
//whole reachable graph.
type SaveOptions struct {
	Depth int
}

func NewSaveOptions() *SaveOptions {
	return &SaveOptions{Depth: infiniteDepth}
}

//LoadOptions controls the traversal depth, filtering, sorting and paging of a load.
type LoadOptions struct {
	Depth      int
	Filters    Filters
	SortOrder  *SortOrder
	Pagination *Pagination
}

func NewLoadOptions() *LoadOptions {
	return &LoadOptions{Depth: defaultLoadDepth}
}

//DeleteOptions restricts DeleteAll to the entities matching Filters.
type DeleteOptions struct {
	Filters Filters
}
