package source

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ParseResult holds everything usable pulled out of one extracted package.
type ParseResult struct {
	Builds []Build
	// Runes indexes the package's rune-page suggestions by champion alias.
	Runes map[string][]RuneBuild
	// Skipped counts descriptor files that failed to parse.
	Skipped int
}

// Parse walks every descriptor file under dir and transforms it into
// normalized builds. A file that does not match the descriptor schema is
// logged and skipped; partial ingestion beats all-or-nothing failure.
func Parse(dir, source string, log zerolog.Logger) (*ParseResult, error) {
	res := &ParseResult{Runes: make(map[string][]RuneBuild)}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") || d.Name() == "package.json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", d.Name()).Msg("unreadable descriptor")
			res.Skipped++
			return nil
		}

		var desc Descriptor
		if err := json.Unmarshal(data, &desc); err != nil || desc.Champion == "" {
			log.Warn().Str("file", d.Name()).Msg("skipping unparseable descriptor")
			res.Skipped++
			return nil
		}

		for i, set := range desc.ItemBuilds {
			index := i + 1
			fileName := BuildFileName(source, desc.Position, desc.Champion, index)
			if set.Title == "" {
				set.Title = fileName
			}
			res.Builds = append(res.Builds, Build{
				Source:   source,
				Champion: desc.Champion,
				Position: desc.Position,
				Index:    index,
				FileName: fileName,
				Set:      set,
			})
		}
		if len(desc.Runes) > 0 {
			res.Runes[desc.Champion] = append(res.Runes[desc.Champion], desc.Runes...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
