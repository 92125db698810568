package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/server-monitor/internal/domain"
)

// Settings holds the game-facing runtime settings parsed from the server
// settings file. They are replaced wholesale on every (re)load; a field absent
// from the file, or one that fails to parse, keeps its previous value.
type Settings struct {
	ServerID   string
	Password   string
	URL        string
	Interval   time.Duration
	Debug      bool
	RankSource domain.RankSourceType
}

// DefaultSettings returns the settings used before the first successful load.
func DefaultSettings() Settings {
	return Settings{
		Interval:   40 * time.Second,
		RankSource: domain.RankSourceDisabled,
	}
}

// ReportingEnabled reports whether a send can be attempted at all. With any
// of the three fields unset the send is skipped, not failed.
func (s Settings) ReportingEnabled() bool {
	return s.ServerID != "" && s.Password != "" && s.URL != ""
}

// LogLevel maps the debug flag to the process log level.
func (s Settings) LogLevel() slog.Level {
	if s.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Store holds the current Settings and reloads them from the settings file on
// demand. Reads are lock-free; a (re)load swaps the whole value at once so a
// concurrent reader never observes a half-updated mix of old and new fields.
type Store struct {
	path string
	cur  atomic.Pointer[Settings]
}

// NewStore creates a store seeded with defaults. It does not touch the file;
// call Load for that.
func NewStore(path string) *Store {
	s := &Store{path: path}
	def := DefaultSettings()
	s.cur.Store(&def)
	return s
}

// Current returns the settings as of the last successful load.
func (s *Store) Current() Settings {
	return *s.cur.Load()
}

// Load parses the settings file and swaps in the result. A missing file or a
// read error leaves the previous settings untouched; the returned error is
// informational only and never fatal.
func (s *Store) Load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening settings file: %w", err)
	}
	defer f.Close()

	next := parseSettings(s.Current(), f)
	s.cur.Store(&next)
	return nil
}

// Reload is an alias for Load, callable at any time.
func (s *Store) Reload() error {
	return s.Load()
}

// keyValueRe matches one quoted "key" "value" pair.
var keyValueRe = regexp.MustCompile(`"([^"]+)"\s+"([^"]+)"`)

// parseSettings scans the block-structured settings file. Only lines inside
// the "Server" block are considered; unknown keys and malformed lines are
// skipped without aborting the parse.
func parseSettings(prev Settings, r io.Reader) Settings {
	out := prev
	inBlock := false

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(strings.TrimSpace(line), `"Server"`) {
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if strings.Contains(line, "}") {
			inBlock = false
			continue
		}

		m := keyValueRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		value := strings.TrimSpace(m[2])

		switch key {
		case "server_info":
			out.ServerID = value
		case "password":
			out.Password = value
		case "url":
			out.URL = value
		case "timer_interval":
			if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
				out.Interval = time.Duration(secs * float64(time.Second))
			}
		case "debug_mode":
			out.Debug = strings.EqualFold(value, "true")
		case "statistic_type":
			if n, err := strconv.Atoi(value); err == nil {
				out.RankSource = domain.RankSourceType(n)
			}
		}
	}

	return out
}
