package bracket

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CatalogOverrideFile is the optional file in the rules override directory
// that replaces the built-in category lists wholesale. The combo table is
// not overridable. Unlike the rule lists, which the rules watcher reloads
// on change, this file is read once at startup; edits take effect after a
// restart.
const CatalogOverrideFile = "bracket_catalogs.json"

// catalogOverride is the on-disk shape of a catalog override. Every list
// replaces its built-in counterpart entirely; an absent list keeps the
// default.
type catalogOverride struct {
	MassLandDenial    []string `json:"mass_land_denial"`
	ExtraTurnChaining []string `json:"extra_turn_chaining"`
	Tutors            []string `json:"tutors"`
	GameChangers      []string `json:"game_changers"`
}

// CatalogsFromDir returns the built-in catalogs, with any lists replaced by
// the override file in dir. An empty dir or a missing file yields the
// defaults.
func CatalogsFromDir(dir string) (*Catalogs, error) {
	catalogs := DefaultCatalogs()
	if dir == "" {
		return catalogs, nil
	}

	path := filepath.Join(dir, CatalogOverrideFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return catalogs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog override %s: %w", path, err)
	}

	var override catalogOverride
	if err := json.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse catalog override %s: %w", path, err)
	}

	if override.MassLandDenial != nil {
		catalogs.massLandDenial = nameSet(override.MassLandDenial...)
	}
	if override.ExtraTurnChaining != nil {
		catalogs.extraTurnChaining = nameSet(override.ExtraTurnChaining...)
	}
	if override.Tutors != nil {
		catalogs.tutors = nameSet(override.Tutors...)
	}
	if override.GameChangers != nil {
		catalogs.gameChangers = nameSet(override.GameChangers...)
	}

	return catalogs, nil
}
