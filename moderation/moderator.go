// Package moderation censors relayed string payloads against a word
// blocklist using an Aho-Corasick automaton, so cost stays linear in
// the payload regardless of list size.
package moderation

import (
	"bufio"
	"bytes"
	"embed"
	"log/slog"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

//go:embed words/*.txt
var wordFiles embed.FS

// Moderator replaces blocked spans with a replacement rune. Matching is
// case-insensitive; replacement preserves payload length.
type Moderator struct {
	log         *slog.Logger
	machine     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the automaton from the given word list.
func NewModerator(log *slog.Logger, words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range lo.Uniq(words) {
		patterns = append(patterns, []rune(strings.ToLower(w)))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{log: log, machine: m, replacement: replacement}, nil
}

// NewDefaultModerator loads the embedded blocklist.
func NewDefaultModerator(log *slog.Logger, replacement rune) (*Moderator, error) {
	words, err := loadEmbeddedWords()
	if err != nil {
		return nil, err
	}
	log.Info("moderation blocklist loaded", "words", len(words))
	return NewModerator(log, words, replacement)
}

// Censor masks every blocked span in the text. A hit is logged once per
// payload together with the detected language, for moderation tuning.
func (m *Moderator) Censor(text string) string {
	runes := []rune(text)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}

	hits := m.machine.MultiPatternSearch(lowered, false)
	if len(hits) == 0 {
		return text
	}

	for _, hit := range hits {
		for i := hit.Pos; i < hit.Pos+len(hit.Word) && i < len(runes); i++ {
			runes[i] = m.replacement
		}
	}

	info := whatlanggo.Detect(text)
	m.log.Info("payload censored",
		"hits", len(hits),
		"lang", info.Lang.String(),
	)
	return string(runes)
}

func loadEmbeddedWords() ([]string, error) {
	entries, err := wordFiles.ReadDir("words")
	if err != nil {
		return nil, err
	}

	var words []string
	for _, entry := range entries {
		data, err := wordFiles.ReadFile("words/" + entry.Name())
		if err != nil {
			return nil, err
		}

		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			words = append(words, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}
	return words, nil
}
