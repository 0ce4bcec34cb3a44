package sanitize

import (
	"encoding/json"
	"strings"
)

// shape is the key tree of a project document, derived from Policies.
type shape struct {
	fields map[string]*shape
	each   *shape
}

var documentShape = shapeOf(Policies)

func shapeOf(rules []Rule) *shape {
	root := &shape{}
	for _, r := range rules {
		node := root
		for _, part := range strings.Split(r.Field, ".") {
			name, isArray := strings.CutSuffix(part, "[]")
			node = node.child(name)
			if isArray {
				if node.each == nil {
					node.each = &shape{}
				}
				node = node.each
			}
		}
	}
	return root
}

func (s *shape) child(name string) *shape {
	if s.fields == nil {
		s.fields = make(map[string]*shape)
	}
	c, ok := s.fields[name]
	if !ok {
		c = &shape{}
		s.fields[name] = c
	}
	return c
}

// exactKeys drops every object key that is not spelled exactly like a known
// field. encoding/json matches struct fields case-insensitively, so without
// this "META" would satisfy a required "meta". Values of the wrong JSON type
// are passed through for the typed decode to reject.
func (s *shape) exactKeys(data json.RawMessage) (json.RawMessage, error) {
	switch {
	case s.each != nil:
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil || elems == nil {
			return data, nil
		}
		for i, e := range elems {
			kept, err := s.each.exactKeys(e)
			if err != nil {
				return nil, err
			}
			elems[i] = kept
		}
		return json.Marshal(elems)
	case s.fields != nil:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
			return data, nil
		}
		kept := make(map[string]json.RawMessage, len(obj))
		for key, value := range obj {
			child, ok := s.fields[key]
			if !ok {
				continue
			}
			v, err := child.exactKeys(value)
			if err != nil {
				return nil, err
			}
			kept[key] = v
		}
		return json.Marshal(kept)
	default:
		return data, nil
	}
}
