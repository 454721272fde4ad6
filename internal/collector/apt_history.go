package collector

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// aptHistory is the evidence mined from apt's transaction logs. History is
// the only source that distinguishes a hand-picked install from an
// auto-installed dependency once the extended_states marker has been abused,
// and the only source that identifies installer-era transactions at all.
type aptHistory struct {
	// manual holds identifiers the user installed by hand and has not
	// removed since.
	manual map[string]bool
	// auto holds identifiers recorded as automatic dependency installs.
	auto map[string]bool
	// os holds identifiers from transactions without a Requested-By
	// field, i.e. performed by the installer rather than a user.
	os map[string]bool
}

func newAptHistory() aptHistory {
	return aptHistory{
		manual: make(map[string]bool),
		auto:   make(map[string]bool),
		os:     make(map[string]bool),
	}
}

// readAptHistory parses every history log matching glob, oldest first so
// that later removals cancel earlier installs.
func readAptHistory(glob string) aptHistory {
	hist := newAptHistory()

	files, err := filepath.Glob(glob)
	if err != nil || len(files) == 0 {
		log.Debug("no apt history logs", "glob", glob, "err", err)
		return hist
	}
	sort.Slice(files, func(i, j int) bool {
		return historyMtime(files[i]).Before(historyMtime(files[j]))
	})

	for _, file := range files {
		data, err := readMaybeGzip(file)
		if err != nil {
			log.Debug("cannot read apt history log", "file", file, "err", err)
			continue
		}
		parseAptHistory(string(data), &hist)
	}
	return hist
}

func historyMtime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// readMaybeGzip reads a file, transparently decompressing rotated logs.
func readMaybeGzip(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

// historyEntryPattern matches one "name:arch (version, automatic)" element
// of a transaction's package list.
var historyEntryPattern = regexp.MustCompile(`([^:, ]+):([^ ]+) \(([^\)]*)\)`)

// historyOperations are the stanza fields whose package lists matter.
var historyOperations = []string{"Install", "Remove", "Purge"}

// parseAptHistory folds the transaction stanzas of one log into hist.
func parseAptHistory(data string, hist *aptHistory) {
	stanza := make(map[string]string)
	var lastKey string

	flush := func() {
		if len(stanza) > 0 {
			applyHistoryStanza(stanza, hist)
		}
		stanza = make(map[string]string)
		lastKey = ""
	}

	scanner := bufio.NewScanner(strings.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		// Continuation lines extend the previous field.
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && lastKey != "" {
			stanza[lastKey] += " " + strings.TrimSpace(line)
			continue
		}
		if key, value, ok := strings.Cut(line, ":"); ok {
			lastKey = strings.TrimSpace(key)
			stanza[lastKey] = strings.TrimSpace(value)
		}
	}
	flush()
}

func applyHistoryStanza(stanza map[string]string, hist *aptHistory) {
	_, requested := stanza["Requested-By"]
	for _, operation := range historyOperations {
		value, ok := stanza[operation]
		if !ok {
			continue
		}
		install := operation == "Install"
		for _, m := range historyEntryPattern.FindAllStringSubmatch(value, -1) {
			id := m[1] + ":" + m[2]
			automatic := strings.HasSuffix(m[3], "automatic")
			switch {
			case !requested:
				hist.os[id] = true
			case install && !automatic:
				hist.manual[id] = true
			case install && automatic:
				hist.auto[id] = true
			case !install && !automatic:
				delete(hist.manual, id)
			case !install && automatic:
				delete(hist.auto, id)
			}
		}
	}
}
