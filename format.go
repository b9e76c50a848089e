package errship

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultMaxLength is the platform message-size limit applied to channel and
// webhook formats when the formatter is not configured otherwise.
const DefaultMaxLength = 2000

// truncationMarker is appended whenever rich output had to be cut.
const truncationMarker = "… (message truncated)"

// Formatter renders a Report into a sink-appropriate message body. The zero
// value is ready to use.
type Formatter struct {
	// MaxLength caps channel/webhook output, marker included. Zero or
	// negative means DefaultMaxLength. File output is never truncated.
	MaxLength int
}

// Format is a pure transformation; it fails only when the report message is
// empty. A zero OccurredAt is replaced with the current time.
func (f Formatter) Format(r Report, kind Kind) (string, error) {
	if strings.TrimSpace(r.Message) == "" {
		return "", ErrEmptyMessage
	}

	occurredAt := r.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	if kind == KindFile {
		return f.formatRecord(r, occurredAt), nil
	}
	return f.formatRich(r, occurredAt), nil
}

// formatRich builds the flat rich-text body used by channel and webhook
// sinks: bold title, numbered cause chain, context bullets, timestamp.
func (f Formatter) formatRich(r Report, occurredAt time.Time) string {
	text := strings.Builder{}
	text.WriteByte('*')
	text.WriteString(r.Message)
	text.WriteString("*\n")

	if causes := causeChain(r.Err); len(causes) > 0 {
		text.WriteString("Caused by:\n")
		for i, cause := range causes {
			fmt.Fprintf(&text, " %d. %s\n", i+1, cause)
		}
	}

	for _, key := range sortedKeys(r.Context) {
		text.WriteString("• ")
		text.WriteString(key)
		text.WriteString(": ")
		text.WriteString(r.Context[key])
		text.WriteByte('\n')
	}

	if r.ID != "" {
		text.WriteString("• Report ID: ")
		text.WriteString(r.ID)
		text.WriteByte('\n')
	}
	text.WriteString("• Timestamp: ")
	text.WriteString(occurredAt.UTC().Format(time.RFC3339))

	return truncate(text.String(), f.maxLength())
}

// formatRecord builds the one-line append-log record used by the file sink,
// terminated by the record separator.
func (f Formatter) formatRecord(r Report, occurredAt time.Time) string {
	record := strings.Builder{}
	record.WriteString(occurredAt.UTC().Format(time.RFC3339))
	record.WriteByte(' ')
	record.WriteString(foldLine(r.Message))

	if causes := causeChain(r.Err); len(causes) > 0 {
		record.WriteString(" | caused by: ")
		for i, cause := range causes {
			if i > 0 {
				record.WriteString(" <- ")
			}
			record.WriteString(foldLine(cause))
		}
	}

	if len(r.Context) > 0 {
		record.WriteString(" |")
		for _, key := range sortedKeys(r.Context) {
			record.WriteByte(' ')
			record.WriteString(key)
			record.WriteByte('=')
			record.WriteString(foldLine(r.Context[key]))
		}
	}

	if r.ID != "" {
		record.WriteString(" | id=")
		record.WriteString(r.ID)
	}
	record.WriteByte('\n')

	return record.String()
}

func (f Formatter) maxLength() int {
	if f.MaxLength <= 0 {
		return DefaultMaxLength
	}
	return f.MaxLength
}

// causeChain walks the Unwrap chain outermost to innermost.
func causeChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// foldLine keeps file records one line per report.
func foldLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most limit runes, marker included, never splitting a
// multi-byte character.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	keep := limit - utf8.RuneCountInString(truncationMarker)
	if keep < 0 {
		keep = 0
	}

	seen := 0
	for idx := range s {
		if seen == keep {
			return s[:idx] + truncationMarker
		}
		seen++
	}
	return s
}
