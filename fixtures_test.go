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
	"github.com/neo4j/neo4j-go-driver/v4/neo4j"
)

type Person struct {
	Node    `gogm:"label=Person"`
	ID      *int64
	Name    string
	Age     int
	Friends []*Person `gogm:"relationship=FRIEND"`
	Knows   []*Person `gogm:"relationship=KNOWS,direction=UNDIRECTED"`
	Pet     *Pet      `gogm:"relationship=OWNS"`
	Roles   []*ActedIn
	Scratch string `gogm:"-"`
}

type Pet struct {
	Node
	ID    *int64
	Name  string
	Owner *Person `gogm:"relationship=OWNS,direction=INCOMING"`
}

type Movie struct {
	Node     `gogm:"label=Movie"`
	ID       *int64
	Title    string     `gogm:"primary"`
	Released int64      `gogm:"name=released_in"`
	Cast     []*ActedIn `gogm:"direction=INCOMING"`
}

type ActedIn struct {
	Relationship `gogm:"type=ACTED_IN"`
	ID           *int64
	Role         string
	Actor        *Person `gogm:"startNode"`
	Movie        *Movie  `gogm:"endNode"`
}

type Tag struct {
	Node
	ID     *int64
	Key    string   `gogm:"primary,uuid"`
	Labels []string `gogm:"labels"`
}

func newTestRegistry() *Registry {
	registry, err := NewRegistry(Person{}, &Pet{}, Movie{}, ActedIn{}, Tag{})
	if err != nil {
		panic(err)
	}
	return registry
}

//fakeRunner answers write batches with fresh native ids and every other statement with the
//next queued result.
type fakeRunner struct {
	nextID     int64
	statements []Statement
	results    [][]*neo4j.Record
	err        error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{nextID: 100}
}

func (f *fakeRunner) run(statement Statement) ([]*neo4j.Record, error) {
	f.statements = append(f.statements, statement)
	if f.err != nil {
		return nil, f.err
	}
	if rows, ok := statement.Parameters[rowsParameter].([]any); ok {
		var records []*neo4j.Record
		for _, r := range rows {
			row := r.(map[string]any)
			for _, key := range []string{nodeRefKey, relRefKey} {
				if ref, ok := row[key].(int64); ok {
					f.nextID++
					records = append(records, &neo4j.Record{
						Keys:   []string{"ref", "id", "type"},
						Values: []any{ref, f.nextID, statement.Parameters[typeParameter]},
					})
				}
			}
		}
		return records, nil
	}
	if len(f.results) == 0 {
		return nil, nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result, nil
}

func (f *fakeRunner) queue(records ...*neo4j.Record) {
	f.results = append(f.results, records)
}

func (f *fakeRunner) last() Statement {
	return f.statements[len(f.statements)-1]
}

func record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

type recordingListener struct {
	events     []Event
	rejectSave error
}

func (l *recordingListener) OnPreSave(event Event) error {
	if l.rejectSave != nil {
		return l.rejectSave
	}
	l.events = append(l.events, Event{event.Object, "PRE_" + event.Lifecycle})
	return nil
}

func (l *recordingListener) OnPostSave(event Event) {
	l.events = append(l.events, Event{event.Object, "POST_" + event.Lifecycle})
}

func (l *recordingListener) OnPreDelete(event Event) error {
	l.events = append(l.events, Event{event.Object, "PRE_" + event.Lifecycle})
	return nil
}

func (l *recordingListener) OnPostDelete(event Event) {
	l.events = append(l.events, Event{event.Object, "POST_" + event.Lifecycle})
}
