package storage

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"sync"

	"geointel/internal/shared/logger"
	"geointel/proxypool/model"
)

// Storage persists the set of known-good proxy endpoints between runs.
type Storage interface {
	Load() ([]model.Candidate, error)
	Save(endpoints []string) error
}

// FileStorage keeps one "scheme://host:port" line per endpoint in a plain
// text file, human-inspectable and trivially mergeable.
type FileStorage struct {
	filePath string
	mu       sync.Mutex
}

// NewFileStorage creates a FileStorage backed by the given path.
func NewFileStorage(filePath string) *FileStorage {
	return &FileStorage{filePath: filePath}
}

// Load reads the persisted endpoints. A missing file yields an empty set;
// malformed lines are skipped, not fatal.
func (fs *FileStorage) Load() ([]model.Candidate, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	l := logger.WithComponent("ProxyPool/Storage")

	file, err := os.Open(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			l.Info().Str("path", fs.filePath).Msg("Proxy data file not found, starting with an empty pool.")
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var candidates []model.Candidate
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := model.ParseEndpoint(line)
		if err != nil {
			l.Warn().Int("line", lineNum).Err(err).Msg("Skipping malformed line in proxy file.")
			continue
		}
		c.Source = "persisted"
		candidates = append(candidates, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	l.Info().Int("count", len(candidates)).Msg("Loaded persisted proxy endpoints.")
	return model.Dedupe(candidates), nil
}

// Save writes the endpoint set, one line each, sorted for stable diffs.
func (fs *FileStorage) Save(endpoints []string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	sorted := make([]string, len(endpoints))
	copy(sorted, endpoints)
	sort.Strings(sorted)

	var sb strings.Builder
	for _, e := range sorted {
		sb.WriteString(e)
		sb.WriteString("\n")
	}

	if err := os.WriteFile(fs.filePath, []byte(sb.String()), 0644); err != nil {
		return err
	}

	l := logger.WithComponent("ProxyPool/Storage")
	l.Info().Int("count", len(sorted)).Str("path", fs.filePath).Msg("Persisted proxy endpoints.")
	return nil
}
