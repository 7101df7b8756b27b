package llm

import (
	"regexp"
	"strings"
)

// sqlFencePattern matches the first fenced block opened by "```sql" plus a
// newline and closed by the next "```". Case-sensitive, non-greedy,
// spanning newlines.
var sqlFencePattern = regexp.MustCompile("(?s)```sql\n(.*?)```")

// ExtractSQL isolates the SQL statement from a model reply. The second
// return is false when no fenced sql block exists, which is a defined
// outcome rather than an error: the caller shows the raw reply instead.
// Only the first block is considered.
func ExtractSQL(responseText string) (string, bool) {
	m := sqlFencePattern.FindStringSubmatch(responseText)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}
