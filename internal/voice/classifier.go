package voice

import (
	"strings"

	"github.com/ayusman/handsignal/internal/command"
)

// KeywordSet lists the words that select one command.
type KeywordSet struct {
	Command  command.Command `json:"command"`
	Keywords []string        `json:"keywords"`
}

// DefaultKeywords are tested in order: red, yellow, green. The short entries
// catch how recognizers transcribe the single letters R, Y and G.
var DefaultKeywords = []KeywordSet{
	{Command: command.Red, Keywords: []string{"red", "r", "are", "aar", "arr"}},
	{Command: command.Yellow, Keywords: []string{"yellow", "y", "why", "wye"}},
	{Command: command.Green, Keywords: []string{"green", "g", "ji", "gee"}},
}

// Classifier maps utterances to commands using ordered keyword sets.
type Classifier struct {
	sets []KeywordSet
}

// NewClassifier creates a Classifier. With no sets it uses DefaultKeywords.
func NewClassifier(sets ...KeywordSet) *Classifier {
	if len(sets) == 0 {
		sets = DefaultKeywords
	}
	normalized := make([]KeywordSet, 0, len(sets))
	for _, s := range sets {
		words := make([]string, 0, len(s.Keywords))
		for _, w := range s.Keywords {
			if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
				words = append(words, w)
			}
		}
		normalized = append(normalized, KeywordSet{Command: s.Command, Keywords: words})
	}
	return &Classifier{sets: normalized}
}

// Match returns the command of the first set with a keyword contained in the
// transcript, and that keyword. Keywords match as substrings, so a
// transcript naming two colors resolves to the earlier set.
func (c *Classifier) Match(u Utterance) (command.Command, string, bool) {
	if !u.HasText() {
		return command.Off, "", false
	}
	for _, set := range c.sets {
		for _, w := range set.Keywords {
			if strings.Contains(u.Text, w) {
				return set.Command, w, true
			}
		}
	}
	return command.Off, "", false
}

// Classify returns the command for u. Anything that does not match,
// including every Signal, is command.Off.
func (c *Classifier) Classify(u Utterance) command.Command {
	cmd, _, _ := c.Match(u)
	return cmd
}
