package main

import (
	"os"

	"github.com/response-tagger/response-tagger/pkg/normalizer"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Origin               string            `yaml:"origin"`
	Port                 int               `yaml:"port"`
	CacheControl         string            `yaml:"cacheControl"`
	NoDigestCacheControl string            `yaml:"noDigestCacheControl"`
	SessionHeader        string            `yaml:"sessionHeader"`
	Rules                []normalizer.Rule `yaml:"rules"`
}

func getConfig(filename string) (Config, error) {
	var config Config
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
