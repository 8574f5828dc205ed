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
	"go.uber.org/zap"
)

//SessionImpl maps domain objects to and from the graph. It keeps the identity map of
//everything it saved or loaded; it is not safe for concurrent use.
type SessionImpl struct {
	cypherExecuter *cypherExecuter
	saver          *saver
	loader         *loader
	deleter        *deleter
	queryer        *queryer
	transactioner  *transactioner
	context        *MappingContext
	registry       *Registry
	driver         neo4j.Driver
	eventer        *eventer
	config         *Config
	logger         *zap.Logger
}

func newSession(driver neo4j.Driver, registry *Registry, config *Config, logger *zap.Logger) *SessionImpl {
	executer := newCypherExecuter(driver, neo4j.AccessModeWrite, config.Database, logger)
	s := newSessionWithRunner(executer, registry, config, logger)
	s.driver = driver
	s.cypherExecuter = executer
	s.transactioner = newTransactioner(driver, executer, config.Database)
	return s
}

//newSessionWithRunner wires a session whose statements go to runner.
func newSessionWithRunner(runner statementRunner, registry *Registry, config *Config, logger *zap.Logger) *SessionImpl {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	context := NewMappingContext(registry)
	mapper := newGraphEntityMapper(registry, context, logger)
	eventer := &eventer{}
	compiler := NewCompiler(registry, WithCompilerLogger(logger))

	return &SessionImpl{
		saver:         newSaver(runner, context, registry, compiler, eventer, logger),
		loader:        newLoader(runner, registry, context, mapper, logger),
		deleter:       newDeleter(runner, registry, context, eventer, logger),
		queryer:       newQueryer(runner, registry, context, mapper, logger),
		transactioner: newTransactioner(nil, nil, config.Database),
		context:       context,
		registry:      registry,
		eventer:       eventer,
		config:        config,
		logger:        logger,
	}
}

//Precondition: object is a pointer to a pointer of domain object: **<domainObject>
//
//Post condition: *object holds the loaded object, or nil with ErrNotFound
func (s *SessionImpl) Load(object any, ID any, loadOptions *LoadOptions) error {
	return s.loader.load(object, ID, s.loadOptions(loadOptions))
}

//Precondition: objects is a pointer to slice of pointers to domain objects: *[]*<domainObject>.
//IDs is nil to load by type, or []int64.
func (s *SessionImpl) LoadAll(objects any, IDs any, loadOptions *LoadOptions) error {
	return s.loader.loadAll(objects, IDs, s.loadOptions(loadOptions))
}

func (s *SessionImpl) Reload(objects ...any) error {
	return s.loader.reload(objects...)
}

func (s *SessionImpl) Save(objects any, saveOptions *SaveOptions) error {
	if saveOptions == nil {
		saveOptions = &SaveOptions{Depth: s.config.SaveDepth}
	}
	return s.saver.save(objects, saveOptions)
}

func (s *SessionImpl) Delete(object any) error {
	return s.deleter.delete(object)
}

//DeleteAll deletes every entity of object's type. object is *<domainObject> or *[]*<domainObject>.
func (s *SessionImpl) DeleteAll(object any, deleteOptions *DeleteOptions) error {
	return s.deleter.deleteAll(object, deleteOptions)
}

func (s *SessionImpl) PurgeDatabase() error {
	return s.deleter.purgeDatabase()
}

//Clear forgets every object of the session. Objects are saved as new afterwards unless they
//carry a native id.
func (s *SessionImpl) Clear() error {
	s.context.Clear()
	return nil
}

func (s *SessionImpl) BeginTransaction() (*Transaction, error) {
	return s.transactioner.beginTransaction()
}

func (s *SessionImpl) GetTransaction() *Transaction {
	return s.transactioner.transaction
}

//Precondition:
// * object is a pointer to a pointer of domain object: **<domainObject>
// * cypher returns the domain object in a column of its own, at most once
//
//Post condition:
//Populated domain object, with every other registered entity in the result mapped into the session
func (s *SessionImpl) QueryForObject(object any, cypher string, parameters map[string]any) error {
	return s.queryer.queryForObject(object, cypher, parameters)
}

//Precondition:
// * objects is a pointer to slice of pointers to domain objects: *[]*<domainObject>
// * cypher returns the domain objects in columns of their own
func (s *SessionImpl) QueryForObjects(objects any, cypher string, parameters map[string]any) error {
	return s.queryer.queryForObjects(objects, cypher, parameters)
}

func (s *SessionImpl) Query(cypher string, parameters map[string]any) ([]map[string]any, error) {
	return s.queryer.query(cypher, parameters)
}

func (s *SessionImpl) CountEntitiesOfType(object any) (int64, error) {
	return s.queryer.countEntitiesOfType(object)
}

func (s *SessionImpl) Count(cypher string, parameters map[string]any) (int64, error) {
	return s.queryer.count(cypher, parameters)
}

func (s *SessionImpl) RegisterEventListener(eventListener EventListener) error {
	return s.eventer.registerEventListener(eventListener)
}

func (s *SessionImpl) DisposeEventListener(eventListener EventListener) error {
	return s.eventer.disposeEventListener(eventListener)
}

//MappingContext exposes the session's persisted state.
func (s *SessionImpl) MappingContext() *MappingContext {
	return s.context
}

func (s *SessionImpl) loadOptions(loadOptions *LoadOptions) *LoadOptions {
	if loadOptions == nil {
		return &LoadOptions{Depth: s.config.LoadDepth}
	}
	return loadOptions
}
