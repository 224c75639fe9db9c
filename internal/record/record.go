package record

import (
	"context"
	"errors"
	"strings"
)

// Recorder persists the distinct links discovered in a run.
// Each Save replaces whatever a previous run wrote.
type Recorder interface {
	Save(ctx context.Context, links []string) error
}

// Format renders links one per line
func Format(links []string) []byte {
	if len(links) == 0 {
		return []byte{}
	}
	return []byte(strings.Join(links, "\n") + "\n")
}

// MultiRecorder saves to every recorder and joins their errors
type MultiRecorder []Recorder

func (m MultiRecorder) Save(ctx context.Context, links []string) error {
	var errs error
	for _, r := range m {
		errs = errors.Join(errs, r.Save(ctx, links))
	}
	return errs
}
