package screen

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lastFindTTL = 5 * time.Minute

// LastFind is the most recent find result, kept in a scratch file so
// `iphone tap recent N` can tap a hit from a previous invocation.
type LastFind struct {
	Query string        `json:"query"`
	At    time.Time     `json:"at"`
	Hits  []ElementView `json:"hits"`
}

func lastFindPath() string {
	return filepath.Join(os.TempDir(), "iphone-cli-last-find.json")
}

// SaveLastFind writes the scratch file. Best-effort: a read-only temp dir
// costs the recent-tap convenience, nothing else.
func SaveLastFind(query string, hits []ElementView) {
	lf := LastFind{Query: query, At: time.Now(), Hits: hits}
	buf, err := json.Marshal(lf)
	if err != nil {
		return
	}
	_ = os.WriteFile(lastFindPath(), buf, 0o644)
}

// LoadLastFind returns the stored result, rejecting stale entries.
func LoadLastFind() (*LastFind, error) {
	buf, err := os.ReadFile(lastFindPath())
	if err != nil {
		return nil, fmt.Errorf("no recent find result: %w", err)
	}
	var lf LastFind
	if err := json.Unmarshal(buf, &lf); err != nil {
		return nil, fmt.Errorf("recent find result unreadable: %w", err)
	}
	if time.Since(lf.At) > lastFindTTL {
		return nil, fmt.Errorf("recent find result from %s is stale", lf.At.Format(time.Kitchen))
	}
	return &lf, nil
}
