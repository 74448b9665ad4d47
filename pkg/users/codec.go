package users

import (
	"fmt"
	"strconv"
	"strings"
)

// On-disk record format, one account per line:
//
//	login:roleInt:activeInt:passwordDigest
//
// Literal ':' and '\' inside the login are backslash-escaped. The digest
// is always the last field and is never escaped.

const recordFields = 4

// formatRecord renders one account as a store line (without newline)
func formatRecord(a *Account) string {
	active := "0"
	if a.Active {
		active = "1"
	}
	return escapeLogin(a.Login) + ":" + strconv.Itoa(int(a.Role)) + ":" + active + ":" + a.PasswordDigest
}

// parseRecord parses a single store line into an account
func parseRecord(line string) (*Account, error) {
	fields := splitEscaped(line)
	if len(fields) != recordFields {
		return nil, fmt.Errorf("expected %d fields, got %d", recordFields, len(fields))
	}

	login := fields[0]
	if login == "" {
		return nil, ErrInvalidLogin
	}

	roleInt, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("parsing role: %w", err)
	}
	role, err := ParseRole(roleInt)
	if err != nil {
		return nil, err
	}

	activeInt, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("parsing active flag: %w", err)
	}

	return &Account{
		Login:          login,
		PasswordDigest: fields[3],
		Role:           role,
		Active:         activeInt != 0,
	}, nil
}

func escapeLogin(login string) string {
	escaped := strings.ReplaceAll(login, `\`, `\\`)
	return strings.ReplaceAll(escaped, ":", `\:`)
}

// splitEscaped splits a record line on ':' while honoring backslash
// escapes. A backslash before any character yields that character
// verbatim.
func splitEscaped(line string) []string {
	var fields []string
	var part strings.Builder
	escaped := false

	for _, c := range line {
		switch {
		case escaped:
			part.WriteRune(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == ':':
			fields = append(fields, part.String())
			part.Reset()
		default:
			part.WriteRune(c)
		}
	}
	fields = append(fields, part.String())
	return fields
}
