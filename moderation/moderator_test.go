package moderation

import (
	"chat-relay/errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions (e.g., "he" inside "The")
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	mod, err := NewModerator([]string{"badger", "snake", "mushroom"}, replacementChar, log)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{"Simple word and space preservation", "The badger is here", "The ****** is here", []string{"badger"}},
		{"Multiple occurrences", "badger badger", "****** ******", []string{"badger", "badger"}},
		{"Leet speak and internal punctuation", "Look at B.4.d.g.€r !", "Look at ********** !", []string{"badger"}},
		{"Uppercase and noise", "S-N-A-K-E is a B.A.D.G.E.R", "********* is a ***********", []string{"snake", "badger"}},
		{"Accents are kept", "Un été avec un badger", "Un été avec un ******", []string{"badger"}},
		{"Nothing to censor", "see you in general", "see you in general", nil},
		{"Empty string", "", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			content, words := mod.Censor(tt.input)
			req.Equal(tt.expected, content)
			req.Equal(tt.words, words)
		})
	}
}

func TestModerator_NoiseOnlyDictionary(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	// Given a dictionary made only of noise
	_, err := NewModerator([]string{"...", ",,,", ""}, replacementChar, log)

	// Then no automaton can be built
	req.ErrorIs(err, errors.ErrEmptyWords)
}

func TestLoadWords(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "censored.txt")
	req.NoError(os.WriteFile(path, []byte("# forbidden\r\nbadger\n\n  snake  \n"), 0o600))

	words, err := LoadWords(path)

	req.NoError(err)
	req.Equal([]string{"badger", "snake"}, words)
}
