package overrides

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// On-disk format, kept byte-compatible with existing installs:
//
//	status_overrides: {"u1"=true,"u2"=false}
//	pending_ops:      ["u1","u3"]
//
// Keys are written in sorted order. Inside a quoted key the encoder escapes
// '"' and '\' with a backslash and the decoder is quote-aware, so ids that
// contain ',', '=' or '"' round-trip. Ids without '"' or '\' are encoded
// exactly as before. A backslash not followed by '"' or '\' is literal.
// Older installs wrote ids ending in '\' unescaped ("id\"); the decoder
// falls back to that reading when the escaped one leaves a quote open.

var (
	errNotWrapped      = errors.New("not wrapped in expected brackets")
	errUnterminated    = errors.New("unterminated quoted string")
	errMissingEquals   = errors.New("missing '='")
	errInvalidBool     = errors.New("value is neither true nor false")
	errTrailingContent = errors.New("unexpected content after id")
	errEmptyEntry      = errors.New("empty entry")
)

func encodeOverrides(m map[string]bool) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range slices.Sorted(maps.Keys(m)) {
		if i > 0 {
			b.WriteByte(',')
		}
		writeQuoted(&b, k)
		b.WriteByte('=')
		if m[k] {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	}
	b.WriteByte('}')
	return b.String()
}

func encodePending(set map[string]struct{}) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, k := range slices.Sorted(maps.Keys(set)) {
		if i > 0 {
			b.WriteByte(',')
		}
		writeQuoted(&b, k)
	}
	b.WriteByte(']')
	return b.String()
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
}

// decodeOverrides always returns a usable map. A non-nil error lists the
// entries that were skipped, or explains why nothing could be read.
func decodeOverrides(text string) (map[string]bool, error) {
	out := make(map[string]bool)

	entries, err := splitCollection(text, '{', '}')
	if err != nil {
		return out, err
	}

	var errs []error
	for _, entry := range entries {
		key, rest, err := readToken(entry, '=')
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %q: %w", entry, err))
			continue
		}
		rest = strings.TrimSpace(rest)
		if !strings.HasPrefix(rest, "=") {
			errs = append(errs, fmt.Errorf("entry %q: %w", entry, errMissingEquals))
			continue
		}
		switch strings.TrimSpace(rest[1:]) {
		case "true":
			out[key] = true
		case "false":
			out[key] = false
		default:
			errs = append(errs, fmt.Errorf("entry %q: %w", entry, errInvalidBool))
		}
	}

	return out, errors.Join(errs...)
}

func decodePending(text string) (map[string]struct{}, error) {
	out := make(map[string]struct{})

	entries, err := splitCollection(text, '[', ']')
	if err != nil {
		return out, err
	}

	var errs []error
	for _, entry := range entries {
		id, rest, err := readToken(entry, 0)
		if err != nil {
			errs = append(errs, fmt.Errorf("entry %q: %w", entry, err))
			continue
		}
		if strings.TrimSpace(rest) != "" {
			errs = append(errs, fmt.Errorf("entry %q: %w", entry, errTrailingContent))
			continue
		}
		out[id] = struct{}{}
	}

	return out, errors.Join(errs...)
}

// splitCollection strips the surrounding brackets and splits the body on
// commas that are not inside quotes. A quote left open does not lose the
// entries before it: from the entry holding that quote on, the body is split
// again reading a '\"' before a separator as a literal backslash and a
// closing quote, and failing that, on every comma. Entries that still do not
// parse are reported by the caller and skipped.
func splitCollection(text string, open, closing byte) ([]string, error) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || text[0] != open || text[len(text)-1] != closing {
		return nil, errNotWrapped
	}

	body := text[1 : len(text)-1]
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	entries, rest, ok := splitQuoted(body, false)
	if ok {
		return entries, nil
	}

	tail, _, ok := splitQuoted(rest, true)
	if !ok {
		tail = strings.Split(rest, ",")
	}
	return append(entries, tail...), nil
}

// splitQuoted splits s on commas outside quotes. If a quote is still open
// at the end it returns the entries before the one holding that quote, the
// remainder of s from that entry on, and false.
func splitQuoted(s string, legacy bool) (entries []string, rest string, ok bool) {
	var (
		start    int
		openedAt int
		quoted   bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\'):
			if legacy && s[i+1] == '"' && endsToken(s[i+2:], '=', ',') {
				quoted = false
			}
			i++
		case c == '"':
			quoted = !quoted
			if quoted {
				openedAt = start
			}
		case c == ',' && !quoted:
			entries = append(entries, s[start:i])
			start = i + 1
		}
	}
	if quoted {
		return entries, s[openedAt:], false
	}
	return append(entries, s[start:]), "", true
}

// endsToken reports whether rest, after spaces, is empty or starts with one
// of stops.
func endsToken(rest string, stops ...byte) bool {
	rest = strings.TrimLeft(rest, " \t")
	return rest == "" || slices.Contains(stops, rest[0])
}

// readToken reads one id from the front of entry. Quoted ids are unescaped;
// unquoted (legacy) ids run up to stop, or to the end when stop is 0.
func readToken(entry string, stop byte) (token, rest string, err error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return "", "", errEmptyEntry
	}

	if entry[0] != '"' {
		if stop == 0 {
			return entry, "", nil
		}
		i := strings.IndexByte(entry, stop)
		if i < 0 {
			return "", "", errMissingEquals
		}
		return strings.TrimSpace(entry[:i]), entry[i:], nil
	}

	token, rest, err = readQuoted(entry, stop, false)
	if errors.Is(err, errUnterminated) {
		// ids ending in a backslash were written unescaped as "id\"
		return readQuoted(entry, stop, true)
	}
	return token, rest, err
}

func readQuoted(entry string, stop byte, legacy bool) (token, rest string, err error) {
	var b strings.Builder
	for i := 1; i < len(entry); i++ {
		c := entry[i]
		switch {
		case legacy && c == '\\' && i+1 < len(entry) && entry[i+1] == '"' && endsToken(entry[i+2:], stop):
			b.WriteByte(c)
			return b.String(), entry[i+2:], nil
		case c == '\\' && i+1 < len(entry) && (entry[i+1] == '"' || entry[i+1] == '\\'):
			i++
			b.WriteByte(entry[i])
		case c == '"':
			return b.String(), entry[i+1:], nil
		default:
			b.WriteByte(c)
		}
	}
	return "", "", errUnterminated
}
