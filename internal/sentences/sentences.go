// internal/sentences/sentences.go
//
// Sentence pool for the typing race.
//
// Initialization behavior (Init):
//   1. If SENTENCES_FILE is set, load one sentence per line from it.
//   2. Otherwise fall back to the embedded default pool.
//
// Sentences shorter than 10 characters are dropped; a race over a
// three-word target is not a race.

package sentences

import (
	"bufio"
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"strings"
	"sync"

	"github.com/blueooh/taja/assets"
)

const minLength = 10

var (
	initOnce   sync.Once
	pool       []string
	poolSet    map[string]struct{}
	initialErr error
)

// Init loads the sentence pool exactly once.
// Returns an error if the pool ends up empty.
func Init() error {
	initOnce.Do(func() {
		var list []string

		if path := os.Getenv("SENTENCES_FILE"); path != "" {
			var err error
			list, err = readSentenceFile(path)
			if err != nil {
				initialErr = err
				return
			}
		} else {
			var err error
			list, err = assets.SentenceList()
			if err != nil {
				initialErr = err
				return
			}
			list = filter(list)
		}

		pool = list
		poolSet = make(map[string]struct{}, len(list))
		for _, s := range list {
			poolSet[s] = struct{}{}
		}

		if len(pool) == 0 {
			initialErr = errors.New("sentences: pool is empty")
		}
	})
	return initialErr
}

func readSentenceFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	// Long sentences need more than the default token size.
	sc.Buffer(make([]byte, 0, 4096), 1<<16)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if len(s) >= minLength && !strings.HasPrefix(s, "#") {
			out = append(out, s)
		}
	}
	return out, sc.Err()
}

func filter(list []string) []string {
	var out []string
	for _, s := range list {
		if len(s) >= minLength {
			out = append(out, s)
		}
	}
	return out
}

// Random returns a cryptographically random sentence from the pool.
// Falls back to a fixed sentence if the pool was never loaded.
func Random() string {
	if len(pool) == 0 {
		return "The quick brown fox jumps over the lazy dog."
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	return pool[nBig.Int64()]
}

// Contains reports whether s is one of the loaded sentences.
func Contains(s string) bool {
	_, ok := poolSet[s]
	return ok
}

// Count returns the number of loaded sentences.
func Count() int { return len(pool) }
