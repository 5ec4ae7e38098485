package loader

import (
	"errors"

	"github.com/pelletier/go-toml/v2"
)

func parseTOML(path string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
			pe.Message = de.Error()
		}
		return nil, pe
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}
