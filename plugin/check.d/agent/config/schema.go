// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"encoding/json"

	"github.com/gohugoio/hashstructure"
	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the configuration file.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "checkengine configuration"

	bs, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(bs, '\n'), nil
}

// Hash returns a hash of the configuration content. Equal configurations have equal hashes.
func (c *Config) Hash() (uint64, error) {
	return hashstructure.Hash(c, nil)
}
