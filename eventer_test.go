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
)

func TestEventerNotifiesInRegistrationOrder(t *testing.T) {
	g := NewGomegaWithT(t)
	e := &eventer{}

	first, second := &recordingListener{}, &recordingListener{}
	g.Expect(e.registerEventListener(first)).To(Succeed())
	g.Expect(e.registerEventListener(second)).To(Succeed())
	g.Expect(errors.Is(e.registerEventListener(nil), ErrIllegalArgument)).To(BeTrue())

	ann := &Person{Name: "Ann"}
	g.Expect(e.preDelete(ann)).To(Succeed())
	e.postDelete(ann)
	g.Expect(first.events).To(Equal([]Event{{ann, "PRE_DELETE"}, {ann, "POST_DELETE"}}))
	g.Expect(second.events).To(Equal(first.events))
}

func TestEventerStopsAtFirstRejection(t *testing.T) {
	g := NewGomegaWithT(t)
	e := &eventer{}

	rejecting := &recordingListener{rejectSave: errors.New("rejected")}
	after := &recordingListener{}
	g.Expect(e.registerEventListener(rejecting)).To(Succeed())
	g.Expect(e.registerEventListener(after)).To(Succeed())

	g.Expect(e.preSave(&Person{}, CREATE)).To(MatchError("rejected"))
	g.Expect(after.events).To(BeEmpty())

	g.Expect(e.disposeEventListener(rejecting)).To(Succeed())
	g.Expect(e.preSave(&Person{}, UPDATE)).To(Succeed())
	g.Expect(after.events).To(HaveLen(1))
	g.Expect(after.events[0].Lifecycle).To(Equal(Lifecycle("PRE_UPDATE")))
}
