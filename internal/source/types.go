// Package source implements build-source ingestion: fetching a source's
// latest package from the registry, extracting it, transforming descriptor
// files into item sets, and writing them into the game's Champions
// directory.
package source

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ItemBuild is one build block from a source descriptor. Blocks are carried
// through verbatim into the generated item-set file.
type ItemBuild struct {
	Title               string            `json:"title"`
	Type                string            `json:"type,omitempty"`
	Map                 string            `json:"map,omitempty"`
	Mode                string            `json:"mode,omitempty"`
	AssociatedMaps      []int             `json:"associatedMaps,omitempty"`
	AssociatedChampions []int             `json:"associatedChampions,omitempty"`
	Sortrank            int               `json:"sortrank,omitempty"`
	Blocks              []json.RawMessage `json:"blocks"`
}

// RuneBuild is one rune-page suggestion from a source descriptor.
type RuneBuild struct {
	Name            string  `json:"name"`
	Position        string  `json:"position,omitempty"`
	PrimaryStyleID  int     `json:"primaryStyleId"`
	SubStyleID      int     `json:"subStyleId"`
	SelectedPerkIDs []int   `json:"selectedPerkIds"`
	Score           float64 `json:"score,omitempty"`
}

// Descriptor is one per-champion (optionally per-position) file in an
// extracted source package.
type Descriptor struct {
	Champion   string      `json:"champion"`
	Position   string      `json:"position,omitempty"`
	ItemBuilds []ItemBuild `json:"itemBuilds"`
	Runes      []RuneBuild `json:"runes,omitempty"`
}

// Build is a single normalized item set ready to be written to disk.
// (Source, Champion, Position, Index) is unique within one ingestion run,
// which keeps concurrent writes from colliding.
type Build struct {
	Source   string
	Champion string
	Position string
	Index    int // 1-based within the descriptor's itemBuilds
	FileName string
	Set      ItemBuild
}

// BuildFileName derives the on-disk name (without extension) for one build:
// upper-cased source tag, optional position segment, champion alias, and
// the build's 1-based index.
func BuildFileName(source, position, champion string, index int) string {
	if position != "" {
		return fmt.Sprintf("[%s] %s - %s-%d", strings.ToUpper(source), position, champion, index)
	}
	return fmt.Sprintf("[%s] %s-%d", strings.ToUpper(source), champion, index)
}
