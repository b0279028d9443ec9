package use_cases

import (
	"errors"
	"fmt"
)

// ErrKnowledgeStoreRequired - a non-empty query was given but no knowledge
// store is configured. Usage error, never retried.
var ErrKnowledgeStoreRequired = errors.New("a knowledge store is required for a non-empty query")

// PartialStageError - a fan-out stage finished its pass with items still
// missing (per-item failures were logged and left absent). Everything that
// did succeed is already durably saved, so re-running against the same run
// directory retries only the missing items.
type PartialStageError struct {
	Stage   string
	Missing int
	Total   int
	RunDir  string
}

func (e *PartialStageError) Error() string {
	return fmt.Sprintf("%s stage incomplete: %d of %d items missing; re-run with -resume %s to retry",
		e.Stage, e.Missing, e.Total, e.RunDir)
}
