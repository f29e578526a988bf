package main

import (
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// jsonToYAML re-encodes a JSON document as YAML keeping the member order.
// Arrays of scalars, such as positions, are written in flow style.
func jsonToYAML(data []byte) ([]byte, error) {
	return yaml.Marshal(toNode(gjson.ParseBytes(data)))
}

func toNode(v gjson.Result) *yaml.Node {
	switch {
	case v.IsObject():
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.ForEach(func(key, value gjson.Result) bool {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key.Str},
				toNode(value))
			return true
		})
		return n

	case v.IsArray():
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, item := range v.Array() {
			child := toNode(item)
			if child.Kind != yaml.ScalarNode {
				n.Style = 0
			}
			n.Content = append(n.Content, child)
		}
		return n
	}

	switch v.Type {
	case gjson.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
	case gjson.Number:
		tag := "!!float"
		if v.Num == float64(int64(v.Num)) && !strings.ContainsAny(v.Raw, ".eE") {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.Raw}
	case gjson.True, gjson.False:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v.Raw}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
