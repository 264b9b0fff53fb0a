package config

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
)

// BlockParam is one name/value line inside an `audio_output { ... }`
// block, tagged with the line it came from for error reporting.
type BlockParam struct {
	Name  string
	Value string
	Line  int
}

// ConfigParam is either a scalar value or, when its spec says block,
// an ordered list of BlockParams.
type ConfigParam struct {
	Value       string
	Line        int
	BlockParams []BlockParam
}

// GetBlockParam returns the last BlockParam with the given name, or
// nil if none is present. Repeating a block sub-parameter is a warning
// in the original, not an error; the last one wins here too.
func (p *ConfigParam) GetBlockParam(name string) *BlockParam {
	var ret *BlockParam
	for i := range p.BlockParams {
		if p.BlockParams[i].Name == name {
			if ret != nil {
				slog.Warn("block parameter redefined",
					"name", name, "first_line", ret.Line, "line", p.BlockParams[i].Line)
			}
			ret = &p.BlockParams[i]
		}
	}
	return ret
}

type paramSpec struct {
	repeatable bool
	block      bool
}

// PlayerConfigRegistry holds the parsed contents of a block-structured
// parameter file (spec §6): one statement per line, `#` line comments,
// `{ ... }` blocks, and parameters declared ahead of time as scalar or
// block and as single-valued or repeatable.
type PlayerConfigRegistry struct {
	specs  map[string]paramSpec
	params map[string][]*ConfigParam
}

// NewPlayerConfigRegistry registers the parameter set this playback
// core requires: the scalar startup parameters plus the repeatable
// audio_output block.
func NewPlayerConfigRegistry() *PlayerConfigRegistry {
	r := &PlayerConfigRegistry{
		specs:  make(map[string]paramSpec),
		params: make(map[string][]*ConfigParam),
	}

	r.register("audio_output_format", false, false)
	r.register("audio_buffer_size", false, false)
	r.register("buffer_before_play", false, false)
	r.register("replaygain", false, false)
	r.register("replaygain_preamp", false, false)
	r.register("volume_normalization", false, false)
	r.register("max_command_list_size", false, false)
	r.register("max_output_buffer_size", false, false)
	r.register("audio_output", true, true)

	return r
}

func (r *PlayerConfigRegistry) register(name string, repeatable, block bool) {
	r.specs[name] = paramSpec{repeatable: repeatable, block: block}
}

// Load reads and parses a parameter file. Parse errors are returned,
// not panicked; callers running at startup are expected to treat a
// non-nil error as fatal per spec, but Load itself stays a pure
// function for testability.
func (r *PlayerConfigRegistry) Load(fsys afero.Fs, path string) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		fields, _ := tokenizeConfigLine(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(fields) != 2 {
			return fmt.Errorf("config: improperly formatted line %d: %q", lineNo, scanner.Text())
		}

		name, value := fields[0], fields[1]
		spec, known := r.specs[name]
		if !known {
			return fmt.Errorf("config: unrecognized parameter at line %d: %q", lineNo, name)
		}

		if !spec.repeatable && len(r.params[name]) > 0 {
			first := r.params[name][0]
			return fmt.Errorf("config: parameter %q first defined on line %d and redefined on line %d",
				name, first.Line, lineNo)
		}

		if spec.block {
			if value != "{" {
				return fmt.Errorf("config: expected block opening %q at line %d, got %q", "{", lineNo, value)
			}
			param, newLineNo, err := readConfigBlock(scanner, lineNo)
			if err != nil {
				return err
			}
			lineNo = newLineNo
			r.params[name] = append(r.params[name], param)
		} else {
			r.params[name] = append(r.params[name], &ConfigParam{Value: value, Line: lineNo})
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	return nil
}

func readConfigBlock(scanner *bufio.Scanner, startLine int) (*ConfigParam, int, error) {
	param := &ConfigParam{Line: startLine}
	lineNo := startLine

	for scanner.Scan() {
		lineNo++
		fields, _ := tokenizeConfigLine(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(fields) == 1 && fields[0] == "}" {
			return param, lineNo, nil
		}

		if len(fields) != 2 {
			return nil, lineNo, fmt.Errorf(
				"config: improperly formatted line %d in block beginning at line %d: %q",
				lineNo, startLine, scanner.Text())
		}

		if fields[0] == "{" || fields[1] == "{" || fields[0] == "}" || fields[1] == "}" {
			return nil, lineNo, fmt.Errorf(
				"config: improperly formatted line %d in block beginning at line %d: %q",
				lineNo, startLine, scanner.Text())
		}

		param.BlockParams = append(param.BlockParams, BlockParam{
			Name: fields[0], Value: fields[1], Line: lineNo,
		})
	}

	return nil, lineNo, fmt.Errorf("config: unterminated block beginning at line %d", startLine)
}

// tokenizeConfigLine splits a line into at most two whitespace- or
// quote-delimited fields, stopping at a `#` comment token the way the
// original line scanner does. A quoted field may contain whitespace.
func tokenizeConfigLine(line string) (fields []string, hasComment bool) {
	i := 0
	n := len(line)

	for len(fields) < 2 {
		for i < n && (line[i] == ' ' || line[i] == '\t' || line[i] == '\r') {
			i++
		}
		if i >= n {
			break
		}
		if line[i] == '#' {
			hasComment = true
			break
		}

		var field strings.Builder
		if line[i] == '"' {
			i++
			for i < n && line[i] != '"' {
				field.WriteByte(line[i])
				i++
			}
			if i < n {
				i++
			}
		} else {
			for i < n && line[i] != ' ' && line[i] != '\t' && line[i] != '\r' {
				field.WriteByte(line[i])
				i++
			}
		}
		fields = append(fields, field.String())
	}

	return fields, hasComment
}

// GetParam returns the first (or only, for non-repeatable parameters)
// ConfigParam registered under name, or nil if the parameter was never
// set in the loaded file.
func (r *PlayerConfigRegistry) GetParam(name string) *ConfigParam {
	params := r.params[name]
	if len(params) == 0 {
		return nil
	}
	return params[0]
}

// GetNextParam walks the repeated occurrences of name, returning the
// one after last, or the first if last is nil. Used to iterate
// repeatable audio_output blocks one at a time.
func (r *PlayerConfigRegistry) GetNextParam(name string, last *ConfigParam) *ConfigParam {
	params := r.params[name]
	if len(params) == 0 {
		return nil
	}
	if last == nil {
		return params[0]
	}
	for i, p := range params {
		if p == last {
			if i+1 < len(params) {
				return params[i+1]
			}
			return nil
		}
	}
	return nil
}

// RequireParam returns the named scalar value, or an error if it was
// never set. Spec: "missing required parameters when a caller demands
// them is fatal" — callers at startup should treat this error as such.
func (r *PlayerConfigRegistry) RequireParam(name string) (string, error) {
	param := r.GetParam(name)
	if param == nil {
		return "", fmt.Errorf("config: required parameter %q not found", name)
	}
	return param.Value, nil
}

// ParseBool implements the case-insensitive yes|true|1 / no|false|0
// boolean grammar from spec §6. Any other value is an error.
func ParseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("config: invalid boolean value %q", value)
	}
}
