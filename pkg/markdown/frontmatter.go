package markdown

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

// frontMatter splits leading front matter off src. Two forms are accepted:
// a block between "---" lines, and a leading fence opened with ``` or
// ```yaml. Malformed "---" front matter is logged and dropped. A fence
// that does not hold a YAML mapping is an ordinary code block and is left
// in place.
func (c *Converter) frontMatter(src []byte) (map[string]any, []byte) {
	if block, body, ok := cutBlock(src, "---"); ok {
		meta, err := decodeMeta(block)
		if err != nil {
			c.log.Error("failed to parse front matter", "error", err)
			return nil, body
		}
		return meta, body
	}
	for _, open := range []string{"```yaml", "```"} {
		block, body, ok := cutBlock(src, open)
		if !ok {
			continue
		}
		meta, err := decodeMeta(block)
		if err != nil {
			c.log.Debug("leading code block is not front matter", "error", err)
			return nil, src
		}
		return meta, body
	}
	return nil, src
}

// cutBlock returns the lines between an opening line equal to open and the
// next line starting with the first three bytes of open.
func cutBlock(src []byte, open string) (block, body []byte, ok bool) {
	rest, found := bytes.CutPrefix(src, []byte(open))
	if !found {
		return nil, src, false
	}
	if rest, found = cutNewline(rest); !found {
		return nil, src, false
	}
	closing := []byte(open[:3])
	for off := 0; off <= len(rest); {
		line := rest[off:]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i+1]
		}
		if bytes.HasPrefix(line, closing) && len(bytes.TrimSpace(line)) == len(closing) {
			return rest[:off], rest[off+len(line):], true
		}
		if len(line) == 0 {
			break
		}
		off += len(line)
	}
	return nil, src, false
}

func cutNewline(b []byte) ([]byte, bool) {
	if rest, ok := bytes.CutPrefix(b, []byte("\r\n")); ok {
		return rest, true
	}
	return bytes.CutPrefix(b, []byte("\n"))
}

func decodeMeta(block []byte) (map[string]any, error) {
	meta := map[string]any{}
	if err := yaml.Unmarshal(block, &meta); err != nil {
		return nil, err
	}
	return meta, nil
}
