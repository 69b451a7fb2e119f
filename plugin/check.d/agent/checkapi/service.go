// SPDX-License-Identifier: GPL-3.0-or-later

package checkapi

// Service is a discovered monitorable item. Item is empty for plugins without items.
type Service struct {
	Item       string `yaml:"item" json:"item"`
	Parameters Params `yaml:"parameters,omitempty" json:"parameters,omitempty"`
}

func (s Service) HasItem() bool { return s.Item != "" }

// NewService is a shortcut for discovery functions.
func NewService(item string, params Params) Service {
	return Service{Item: item, Parameters: params}
}
