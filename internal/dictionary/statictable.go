package dictionary

import (
	"encoding/json"
	"fmt"
	"os"
)

// StaticTable maps uppercase words to their definitions. It is loaded once
// at process start from a JSON asset and never mutated afterwards.
type StaticTable map[string]string

// LoadStaticTable reads the common-words JSON object from path. A missing
// file degrades to an empty table so the static tier simply never hits;
// a present but malformed file is an error.
func LoadStaticTable(path string) (StaticTable, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return StaticTable{}, nil
		}
		return nil, fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}

	var table StaticTable
	if err := json.Unmarshal(contents, &table); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(%s): %w", path, err)
	}
	return table, nil
}

// Lookup returns the definition for a normalized (uppercase) word.
func (t StaticTable) Lookup(normalized string) (string, bool) {
	definition, ok := t[normalized]
	return definition, ok
}
