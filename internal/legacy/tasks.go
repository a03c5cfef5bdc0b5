package legacy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/opsboard/internal/models"
)

const taskTokenPrefix = "task-"

// ParseTaskToken parses a "task-<index>" completion token.
func ParseTaskToken(token string) (int, error) {
	if !strings.HasPrefix(token, taskTokenPrefix) {
		return 0, fmt.Errorf("invalid task token %q", token)
	}
	idx, err := strconv.Atoi(strings.TrimPrefix(token, taskTokenPrefix))
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid task token %q", token)
	}
	return idx, nil
}

// TaskToken renders index as a completion token.
func TaskToken(index int) string {
	return taskTokenPrefix + strconv.Itoa(index)
}

// ResolveTokens maps positional tokens onto the block's task ids. Tokens that
// are malformed or point past the end of the block are returned as dropped.
func ResolveTokens(block models.ScheduleBlock, tokens []string) (ids []string, dropped []string) {
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		idx, err := ParseTaskToken(tok)
		if err != nil || idx >= len(block.Tasks) {
			dropped = append(dropped, tok)
			continue
		}
		id := block.Tasks[idx].ID
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, dropped
}
