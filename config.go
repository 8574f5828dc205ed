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
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

//Config holds the connection and mapping settings of a SessionFactory.
type Config struct {
	URI       string `mapstructure:"NEO4J_URI"`
	Username  string `mapstructure:"NEO4J_USERNAME"`
	Password  string `mapstructure:"NEO4J_PASSWORD"`
	Realm     string `mapstructure:"NEO4J_REALM"`
	Database  string `mapstructure:"NEO4J_DATABASE"`
	LogLevel  string `mapstructure:"OGM_LOG_LEVEL"`
	LoadDepth int    `mapstructure:"OGM_LOAD_DEPTH"`
	SaveDepth int    `mapstructure:"OGM_SAVE_DEPTH"`
}

var configDefaults = map[string]any{
	"NEO4J_URI":      "bolt://localhost:7687",
	"NEO4J_USERNAME": "neo4j",
	"NEO4J_PASSWORD": "",
	"NEO4J_REALM":    "",
	"NEO4J_DATABASE": "",
	"OGM_LOG_LEVEL":  "info",
	"OGM_LOAD_DEPTH": defaultLoadDepth,
	"OGM_SAVE_DEPTH": infiniteDepth,
}

//DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		URI:       configDefaults["NEO4J_URI"].(string),
		Username:  configDefaults["NEO4J_USERNAME"].(string),
		LogLevel:  configDefaults["OGM_LOG_LEVEL"].(string),
		LoadDepth: defaultLoadDepth,
		SaveDepth: infiniteDepth,
	}
}

//LoadConfig reads ogm.yaml from the given paths (the working directory when none are given),
//then lets environment variables override it. A missing file is not an error.
func LoadConfig(logger *zap.Logger, paths ...string) (*Config, error) {
	var config Config

	if logger == nil {
		logger = zap.NewNop()
	}

	v := viper.New()
	v.SetConfigName("ogm")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.AutomaticEnv()

	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, err
		}
		logger.Debug("no ogm config file found, using defaults and environment", zap.Strings("paths", paths))
	}

	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
