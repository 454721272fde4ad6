package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/depscope/internal/registry"
)

// ErrNoSnapshot is returned by LoadLatest when no snapshot exists for the
// requested manager.
var ErrNoSnapshot = errors.New("no snapshot found")

// Snapshot describes one stored collection.
type Snapshot struct {
	ID           int64
	Manager      string
	CreatedAt    time.Time
	PackageCount int
}

// edgeKinds maps the edge table's kind column to the record's edge lists.
const (
	kindRequires    = "requires"
	kindAdvises     = "advises"
	kindSuggests    = "suggests"
	kindSupplements = "supplements"
	kindEnhances    = "enhances"
)

// SaveSnapshot stores the collector-supplied fields of every record in reg
// as a new snapshot for manager, and returns the snapshot id.
func (s *Store) SaveSnapshot(manager string, reg *registry.Registry) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO snapshots (manager, created_at, package_count) VALUES (?, ?, ?)",
		manager, time.Now().UTC().Format(time.RFC3339), reg.Len(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}
	snapshotID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}

	pkgStmt, err := tx.Prepare(`
		INSERT INTO packages
		(snapshot_id, identifier, tier, name, description, category, variety, installation, installed_bytes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare package insert: %w", err)
	}
	defer pkgStmt.Close()

	edgeStmt, err := tx.Prepare(
		"INSERT INTO edges (snapshot_id, package, kind, seq, target) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, id := range reg.IDs() {
		pkg, _ := reg.Get(id)
		tier, _ := reg.Tier(id)

		if _, err := pkgStmt.Exec(snapshotID, id, string(tier), pkg.Name, pkg.Description,
			pkg.Category, pkg.Variety, pkg.Installation, pkg.InstalledBytes); err != nil {
			return 0, fmt.Errorf("failed to insert package %s: %w", id, err)
		}

		edgeLists := []struct {
			kind    string
			targets []string
		}{
			{kindRequires, pkg.Requires},
			{kindAdvises, pkg.Advises},
			{kindSuggests, pkg.Suggests},
			{kindSupplements, pkg.Supplements},
			{kindEnhances, pkg.Enhances},
		}
		for _, edges := range edgeLists {
			for seq, target := range edges.targets {
				if _, err := edgeStmt.Exec(snapshotID, id, edges.kind, seq, target); err != nil {
					return 0, fmt.Errorf("failed to insert edge %s -> %s: %w", id, target, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snapshotID, nil
}

// LoadLatest rebuilds the registry from the most recent snapshot for
// manager. Only collector-supplied fields are restored; the analysis
// pipeline recomputes the rest.
func (s *Store) LoadLatest(manager string) (*registry.Registry, *Snapshot, error) {
	var snap Snapshot
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, manager, created_at, package_count
		FROM snapshots WHERE manager = ?
		ORDER BY id DESC LIMIT 1
	`, manager).Scan(&snap.ID, &snap.Manager, &createdAt, &snap.PackageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w for manager %q", ErrNoSnapshot, manager)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		snap.CreatedAt = t
	}

	reg := registry.New()

	rows, err := s.db.Query(`
		SELECT identifier, tier, name, description, category, variety, installation, installed_bytes
		FROM packages WHERE snapshot_id = ?
		ORDER BY identifier
	`, snap.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query packages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, tier string
		pkg := &registry.Package{}
		if err := rows.Scan(&id, &tier, &pkg.Name, &pkg.Description, &pkg.Category,
			&pkg.Variety, &pkg.Installation, &pkg.InstalledBytes); err != nil {
			return nil, nil, fmt.Errorf("failed to scan package: %w", err)
		}
		if err := reg.Put(registry.Tier(tier), id, pkg); err != nil {
			return nil, nil, fmt.Errorf("failed to restore package %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read packages: %w", err)
	}

	if err := s.loadEdges(snap.ID, reg); err != nil {
		return nil, nil, err
	}
	return reg, &snap, nil
}

func (s *Store) loadEdges(snapshotID int64, reg *registry.Registry) error {
	rows, err := s.db.Query(`
		SELECT package, kind, target
		FROM edges WHERE snapshot_id = ?
		ORDER BY package, kind, seq
	`, snapshotID)
	if err != nil {
		return fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, kind, target string
		if err := rows.Scan(&id, &kind, &target); err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}
		pkg, ok := reg.Get(id)
		if !ok {
			return fmt.Errorf("edge references unknown package %s", id)
		}
		switch kind {
		case kindRequires:
			pkg.Requires = append(pkg.Requires, target)
		case kindAdvises:
			pkg.Advises = append(pkg.Advises, target)
		case kindSuggests:
			pkg.Suggests = append(pkg.Suggests, target)
		case kindSupplements:
			pkg.Supplements = append(pkg.Supplements, target)
		case kindEnhances:
			pkg.Enhances = append(pkg.Enhances, target)
		default:
			return fmt.Errorf("unknown edge kind %q", kind)
		}
	}
	return rows.Err()
}

// ListSnapshots returns all snapshots for manager, newest first.
func (s *Store) ListSnapshots(manager string) ([]Snapshot, error) {
	rows, err := s.db.Query(`
		SELECT id, manager, created_at, package_count
		FROM snapshots WHERE manager = ?
		ORDER BY id DESC
	`, manager)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		var createdAt string
		if err := rows.Scan(&snap.ID, &snap.Manager, &createdAt, &snap.PackageCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			snap.CreatedAt = t
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// PruneSnapshots removes all but the newest keep snapshots for manager.
func (s *Store) PruneSnapshots(manager string, keep int) error {
	_, err := s.db.Exec(`
		DELETE FROM snapshots
		WHERE manager = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE manager = ? ORDER BY id DESC LIMIT ?
		)
	`, manager, manager, keep)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
