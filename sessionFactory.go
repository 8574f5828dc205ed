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

//SessionFactory owns the driver and the entity registry shared by the sessions it opens.
type SessionFactory struct {
	driver   neo4j.Driver
	registry *Registry
	config   *Config
	logger   *zap.Logger
}

//NewSessionFactory connects to the database described by config and registers types. A nil
//config falls back to DefaultConfig, a nil logger to one built from config.LogLevel.
func NewSessionFactory(config *Config, logger *zap.Logger, types ...any) (*SessionFactory, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		var err error
		if logger, err = NewLogger(config.LogLevel); err != nil {
			return nil, err
		}
	}

	registry, err := NewRegistry(types...)
	if err != nil {
		return nil, err
	}

	driver, err := neo4j.NewDriver(config.URI, neo4j.BasicAuth(config.Username, config.Password, config.Realm))
	if err != nil {
		return nil, err
	}
	logger.Info("session factory ready", zap.String("uri", config.URI), zap.String("database", config.Database), zap.Int("entities", len(registry.entities)))

	return &SessionFactory{driver, registry, config, logger}, nil
}

func (f *SessionFactory) OpenSession() *SessionImpl {
	return newSession(f.driver, f.registry, f.config, f.logger)
}

func (f *SessionFactory) Registry() *Registry {
	return f.registry
}

func (f *SessionFactory) Close() error {
	return f.driver.Close()
}
