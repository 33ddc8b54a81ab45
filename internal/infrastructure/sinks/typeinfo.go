package sinks

// ConfigField describes one configuration field for a sink type.
type ConfigField struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "string", "number", "bool", "duration", "list"
	Required    bool   `json:"required"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

// SinkTypeInfo describes a sink type and the configuration it expects.
// Returned by Factory.ConfigSpec() and exposed via GET /sinks/types/:type.
type SinkTypeInfo struct {
	Type        string        `json:"type"`
	Mode        Mode          `json:"mode"`
	Description string        `json:"description"`
	Fields      []ConfigField `json:"fields"`
}
