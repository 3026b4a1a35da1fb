package fmtcompiler

import (
	"strconv"
	"strings"

	"github.com/rtedbg/rtemsg/descriptor"
)

// callArgs splits a `PREFIX(arg1, "arg2", ...)` directive line into its
// argument list, stripping the surrounding quotes from quoted arguments.
func callArgs(line, prefix string) ([]string, bool) {
	open := prefix + "("
	if !strings.HasPrefix(line, open) || !strings.HasSuffix(line, ")") {
		return nil, false
	}
	inner := line[len(open) : len(line)-1]
	if strings.TrimSpace(inner) == "" {
		return nil, true
	}

	var args []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case ch == ',' && !inQuote:
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	args = append(args, strings.TrimSpace(cur.String()))
	return args, true
}

// unquote strips a pair of surrounding double quotes.
func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return "", false
}

// parseMsgToken recognizes one MSG0..MSG4 / MSGN[_k] / EXT_MSGm_k / MSGX
// declaration and returns the message's length discipline, expected byte
// length, stolen-bit count, and the number of consecutive format IDs it
// needs (§4.2).
func parseMsgToken(line string) (kind descriptor.Kind, expectedLen, stolenBits, idsNeeded int, name string, ok bool) {
	switch {
	case strings.HasPrefix(line, "EXT_MSG"):
		rest := line[len("EXT_MSG"):]
		parts := strings.SplitN(rest, "_", 3)
		if len(parts) != 3 {
			return
		}
		m, err1 := strconv.Atoi(parts[0])
		k, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || parts[2] == "" {
			return
		}
		return descriptor.KindExtMsg, 4 * m, k, 1 << uint(m+k), parts[2], true

	case strings.HasPrefix(line, "MSGX_"):
		name = line[len("MSGX_"):]
		if name == "" {
			return
		}
		return descriptor.KindMSGX, 0, 0, 1, name, true

	case strings.HasPrefix(line, "MSGN"):
		rest := strings.TrimPrefix(line[len("MSGN"):], "_")
		if rest == "" {
			return
		}
		if idx := strings.IndexByte(rest, '_'); idx > 0 {
			if k, err := strconv.Atoi(rest[:idx]); err == nil && rest[idx+1:] != "" {
				return descriptor.KindMSGN, 4 * k, 0, 16, rest[idx+1:], true
			}
		}
		return descriptor.KindMSGN, 0, 0, 16, rest, true

	case len(line) >= 5 && strings.HasPrefix(line, "MSG") && line[3] >= '0' && line[3] <= '4' && line[4] == '_':
		n := int(line[3] - '0')
		name = line[5:]
		if name == "" {
			return
		}
		return descriptor.KindMSGn, 4 * n, 0, 1 << uint(n), name, true
	}
	return
}
