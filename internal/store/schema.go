package store

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    manager TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    package_count INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS packages (
    snapshot_id INTEGER NOT NULL,
    identifier TEXT NOT NULL,
    tier TEXT NOT NULL,
    name TEXT,
    description TEXT,
    category TEXT,
    variety TEXT,
    installation TEXT,
    installed_bytes INTEGER NOT NULL,
    PRIMARY KEY (snapshot_id, identifier),
    FOREIGN KEY (snapshot_id) REFERENCES snapshots(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS edges (
    snapshot_id INTEGER NOT NULL,
    package TEXT NOT NULL,
    kind TEXT NOT NULL,
    seq INTEGER NOT NULL,
    target TEXT NOT NULL,
    FOREIGN KEY (snapshot_id, package) REFERENCES packages(snapshot_id, identifier) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_snapshots_manager ON snapshots(manager, created_at);
CREATE INDEX IF NOT EXISTS idx_edges_package ON edges(snapshot_id, package);
`
