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

import "errors"

//Lifecycle is the change an event reports.
type Lifecycle string

const (
	CREATE Lifecycle = "CREATE"
	UPDATE Lifecycle = "UPDATE"
	DELETE Lifecycle = "DELETE"
)

type Event struct {
	Object    any
	Lifecycle Lifecycle
}

//EventListener observes writes. An error from a pre-event aborts the operation before any
//statement runs.
type EventListener interface {
	OnPreSave(event Event) error
	OnPostSave(event Event)
	OnPreDelete(event Event) error
	OnPostDelete(event Event)
}

type eventer struct {
	eventListeners []EventListener
}

func (e *eventer) registerEventListener(eventListener EventListener) error {
	if eventListener == nil {
		return illegalArgument("nil event listener")
	}
	if e.indexOf(eventListener) >= 0 {
		return errors.New("event listener already registered")
	}
	e.eventListeners = append(e.eventListeners, eventListener)
	return nil
}

func (e *eventer) disposeEventListener(eventListener EventListener) error {
	index := e.indexOf(eventListener)
	if index < 0 {
		return errors.New("event listener not registered")
	}
	e.eventListeners = append(e.eventListeners[:index], e.eventListeners[index+1:]...)
	return nil
}

func (e *eventer) indexOf(eventListener EventListener) int {
	for i, registered := range e.eventListeners {
		if registered == eventListener {
			return i
		}
	}
	return -1
}

func (e *eventer) preSave(object any, lifecycle Lifecycle) error {
	for _, eventListener := range e.eventListeners {
		if err := eventListener.OnPreSave(Event{object, lifecycle}); err != nil {
			return err
		}
	}
	return nil
}

func (e *eventer) postSave(object any, lifecycle Lifecycle) {
	for _, eventListener := range e.eventListeners {
		eventListener.OnPostSave(Event{object, lifecycle})
	}
}

func (e *eventer) preDelete(object any) error {
	for _, eventListener := range e.eventListeners {
		if err := eventListener.OnPreDelete(Event{object, DELETE}); err != nil {
			return err
		}
	}
	return nil
}

func (e *eventer) postDelete(object any) {
	for _, eventListener := range e.eventListeners {
		eventListener.OnPostDelete(Event{object, DELETE})
	}
}
