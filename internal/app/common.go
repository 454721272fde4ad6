package app

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/depscope/internal/analyzer"
	"github.com/blackwell-systems/depscope/internal/collector"
	"github.com/blackwell-systems/depscope/internal/registry"
	"github.com/blackwell-systems/depscope/internal/store"
)

// snapshotsToKeep bounds per-manager snapshot history in the database.
const snapshotsToKeep = 10

// resolveCollector honors the --manager flag, falling back to autodetection.
func resolveCollector() (collector.Collector, error) {
	if managerName != "" {
		return collector.ByName(managerName)
	}
	return collector.Detect()
}

// openStore opens the snapshot database at the configured path.
func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.New(path)
	if err != nil {
		return nil, err
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// collectAndStore queries the package manager and persists the raw collection
// before any analysis mutates it.
func collectAndStore(c collector.Collector) (*registry.Registry, error) {
	reg, err := c.Collect()
	if err != nil {
		return nil, err
	}

	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	id, err := st.SaveSnapshot(c.Name(), reg)
	if err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	if err := st.PruneSnapshots(c.Name(), snapshotsToKeep); err != nil {
		log.Debug("snapshot pruning failed", "err", err)
	}
	log.Debug("stored snapshot", "id", id, "manager", c.Name(), "packages", reg.Len())
	return reg, nil
}

// loadRegistry produces a fully analyzed registry, either from a fresh
// collection or from the most recent stored snapshot.
func loadRegistry(c collector.Collector, cached bool) (*registry.Registry, error) {
	var reg *registry.Registry
	var err error
	if cached {
		st, serr := openStore()
		if serr != nil {
			return nil, serr
		}
		defer st.Close()
		var snap *store.Snapshot
		reg, snap, err = st.LoadLatest(c.Name())
		if errors.Is(err, store.ErrNoSnapshot) {
			return nil, fmt.Errorf("no stored snapshot for %s, run 'depscope scan' first", c.Name())
		}
		if err != nil {
			return nil, err
		}
		log.Debug("loaded snapshot", "id", snap.ID, "created", snap.CreatedAt, "packages", reg.Len())
	} else {
		reg, err = collectAndStore(c)
		if err != nil {
			return nil, err
		}
	}

	analyzer.Run(reg, c.Reclassify)
	return reg, nil
}
