package release

import (
	"bytes"
	"encoding/json"

	contextutils "jupyterchat/internal/utils"
)

const manifestVersionKey = "version"

type manifestField struct {
	key   string
	value json.RawMessage
}

// parseManifest decodes a top-level JSON object keeping its key order
func parseManifest(data []byte) ([]manifestField, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid manifest: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "manifest must be a JSON object")
	}

	var fields []manifestField
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid manifest: %w", err)
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid manifest value for %q: %w", key, err)
		}
		fields = append(fields, manifestField{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "invalid manifest: %w", err)
	}
	if _, err := dec.Token(); err == nil {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "unexpected data after manifest object")
	}
	return fields, nil
}

// ManifestVersion returns the top-level "version" string of a package.json document
func ManifestVersion(data []byte) (string, error) {
	fields, err := parseManifest(data)
	if err != nil {
		return "", err
	}
	for _, f := range fields {
		if f.key != manifestVersionKey {
			continue
		}
		var version string
		if err := json.Unmarshal(f.value, &version); err != nil {
			return "", contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "manifest version is not a string: %w", err)
		}
		return version, nil
	}
	return "", contextutils.WrapError(contextutils.ErrMissingRequired, "manifest has no version field")
}

// SetManifestVersion returns data with the top-level "version" replaced (or appended),
// other keys in their original order, indented by two spaces and newline terminated
func SetManifestVersion(data []byte, version string) ([]byte, error) {
	fields, err := parseManifest(data)
	if err != nil {
		return nil, err
	}

	encodedVersion, err := marshalNoEscape(version)
	if err != nil {
		return nil, err
	}

	replaced := false
	for i := range fields {
		if fields[i].key == manifestVersionKey {
			fields[i].value = encodedVersion
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, manifestField{key: manifestVersionKey, value: encodedVersion})
	}

	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			compact.WriteByte(',')
		}
		key, err := marshalNoEscape(f.key)
		if err != nil {
			return nil, err
		}
		compact.Write(key)
		compact.WriteByte(':')
		compact.Write(f.value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to format manifest: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func marshalNoEscape(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to encode %q: %w", s, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
