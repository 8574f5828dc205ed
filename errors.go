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
	"errors"
	"fmt"
)

var (
	//ErrIllegalArgument is returned when an operation receives an argument it cannot work with, such as a nil root object.
	ErrIllegalArgument = errors.New("illegal argument")
	//ErrInvalidDepth is returned when a traversal depth cannot be combined with the requested query.
	ErrInvalidDepth = errors.New("invalid depth")
	//ErrMissingOperator is returned when a filter after the first one declares no boolean operator.
	ErrMissingOperator = errors.New("missing boolean operator")
	//ErrUnsupportedOperation is returned for filter combinations the statement grammar cannot express.
	ErrUnsupportedOperation = errors.New("unsupported operation")
	//ErrMapping is returned when an object has no usable entity descriptor.
	ErrMapping = errors.New("mapping error")
	//ErrNotFound is returned when a load matches no entity.
	ErrNotFound = errors.New("entity not found")
)

func illegalArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalArgument, fmt.Sprintf(format, args...))
}

func mappingError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMapping, fmt.Sprintf(format, args...))
}

func invalidDepth(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDepth, fmt.Sprintf(format, args...))
}

func missingOperator(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMissingOperator, fmt.Sprintf(format, args...))
}

func unsupportedOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOperation, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
