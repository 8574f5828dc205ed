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
	"testing"

	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

func TestSessionFactoryOpensIsolatedSessions(t *testing.T) {
	g := NewGomegaWithT(t)

	factory, err := NewSessionFactory(nil, zap.NewNop(), &Person{}, &Pet{}, &Movie{}, &ActedIn{})
	g.Expect(err).ToNot(HaveOccurred())
	defer factory.Close()

	descriptor, err := factory.Registry().DescriptorOf(&Movie{})
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(descriptor.PrimaryIndex).To(Equal("title"))

	first, second := factory.OpenSession(), factory.OpenSession()
	g.Expect(first.MappingContext()).ToNot(BeIdenticalTo(second.MappingContext()))
	g.Expect(first.GetTransaction()).To(BeNil())
}

func TestSessionFactoryRejectsInvalidTypes(t *testing.T) {
	g := NewGomegaWithT(t)

	_, err := NewSessionFactory(DefaultConfig(), zap.NewNop(), 42)
	g.Expect(errors.Is(err, ErrMapping)).To(BeTrue())
}
