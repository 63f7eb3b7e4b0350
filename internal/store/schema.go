package store

// schema declares every table and FTS projection the engine needs. Every
// statement is create-if-absent, so running it against an already
// up-to-date database is a no-op; see migrations.go for the additive
// changes (like the embedding column) that can't be expressed this way.
const schema = `
CREATE TABLE IF NOT EXISTS memory_l0_events (
    id             TEXT PRIMARY KEY,
    tenant_id      TEXT NOT NULL,
    workspace_id   TEXT NOT NULL,
    repo_id        TEXT DEFAULT '',
    session_id     TEXT DEFAULT '',
    task_id        TEXT DEFAULT '',
    payload        BLOB NOT NULL,
    source_session TEXT DEFAULT '',
    content_hash   TEXT DEFAULT '',
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    expires_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_l0_scope ON memory_l0_events(tenant_id, workspace_id);
CREATE INDEX IF NOT EXISTS idx_l0_expires ON memory_l0_events(expires_at);

CREATE TABLE IF NOT EXISTS memory_l1_nodes (
    id                  TEXT PRIMARY KEY,
    tenant_id           TEXT NOT NULL,
    workspace_id        TEXT NOT NULL,
    repo_id             TEXT DEFAULT '',
    module              TEXT DEFAULT '',
    environment         TEXT DEFAULT '',
    user_id             TEXT DEFAULT '',
    session_id          TEXT DEFAULT '',
    task_id             TEXT DEFAULT '',
    type                TEXT NOT NULL,
    status              TEXT NOT NULL DEFAULT 'active',
    title               TEXT NOT NULL DEFAULT '',
    summary             TEXT NOT NULL DEFAULT '',
    tags                TEXT NOT NULL DEFAULT '[]',
    entities            TEXT NOT NULL DEFAULT '[]',
    claims              TEXT NOT NULL DEFAULT '[]',
    applicability       TEXT NOT NULL DEFAULT '{}',
    confidence          REAL NOT NULL DEFAULT 0,
    evidence_count      INTEGER NOT NULL DEFAULT 0,
    confirmation_count  INTEGER NOT NULL DEFAULT 1,
    created_at          DATETIME NOT NULL,
    updated_at          DATETIME NOT NULL,
    last_confirmed_at   DATETIME NOT NULL,
    ttl_seconds         INTEGER,
    content_hash        TEXT DEFAULT '',
    compaction_level    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_l1_scope ON memory_l1_nodes(tenant_id, workspace_id);
CREATE INDEX IF NOT EXISTS idx_l1_status ON memory_l1_nodes(status);
CREATE INDEX IF NOT EXISTS idx_l1_type ON memory_l1_nodes(type);
CREATE INDEX IF NOT EXISTS idx_l1_session ON memory_l1_nodes(tenant_id, workspace_id, session_id);
CREATE INDEX IF NOT EXISTS idx_l1_task ON memory_l1_nodes(tenant_id, workspace_id, task_id);
CREATE INDEX IF NOT EXISTS idx_l1_created_day ON memory_l1_nodes(tenant_id, workspace_id, repo_id, module, created_at);

CREATE VIRTUAL TABLE IF NOT EXISTS memory_l1_fts USING fts5(
    id UNINDEXED, title, summary, tags_text, entities_text
);

CREATE TABLE IF NOT EXISTS memory_l2_nodes (
    id                  TEXT PRIMARY KEY,
    tenant_id           TEXT NOT NULL,
    workspace_id        TEXT NOT NULL,
    repo_id             TEXT DEFAULT '',
    module              TEXT DEFAULT '',
    environment         TEXT DEFAULT '',
    user_id             TEXT DEFAULT '',
    type                TEXT NOT NULL,
    status              TEXT NOT NULL DEFAULT 'active',
    version             INTEGER NOT NULL DEFAULT 1,
    supersedes_id       TEXT,
    title               TEXT NOT NULL DEFAULT '',
    summary             TEXT NOT NULL DEFAULT '',
    tags                TEXT NOT NULL DEFAULT '[]',
    entities            TEXT NOT NULL DEFAULT '[]',
    claims              TEXT NOT NULL DEFAULT '[]',
    applicability       TEXT NOT NULL DEFAULT '{}',
    confidence          REAL NOT NULL DEFAULT 1.0,
    evidence_count      INTEGER NOT NULL DEFAULT 0,
    confirmation_count  INTEGER NOT NULL DEFAULT 1,
    created_at          DATETIME NOT NULL,
    updated_at          DATETIME NOT NULL,
    last_confirmed_at   DATETIME NOT NULL,
    FOREIGN KEY (supersedes_id) REFERENCES memory_l2_nodes(id)
);

CREATE INDEX IF NOT EXISTS idx_l2_scope ON memory_l2_nodes(tenant_id, workspace_id);
CREATE INDEX IF NOT EXISTS idx_l2_status ON memory_l2_nodes(status);
CREATE INDEX IF NOT EXISTS idx_l2_type ON memory_l2_nodes(type);

CREATE VIRTUAL TABLE IF NOT EXISTS memory_l2_fts USING fts5(
    id UNINDEXED, title, summary, tags_text, entities_text
);

CREATE TABLE IF NOT EXISTS memory_l2_edges (
    tenant_id    TEXT NOT NULL,
    workspace_id TEXT NOT NULL,
    from_id      TEXT NOT NULL,
    rel          TEXT NOT NULL,
    to_id        TEXT NOT NULL,
    weight       REAL NOT NULL DEFAULT 1.0,
    created_at   DATETIME NOT NULL,
    PRIMARY KEY (tenant_id, workspace_id, from_id, rel, to_id),
    FOREIGN KEY (from_id) REFERENCES memory_l2_nodes(id),
    FOREIGN KEY (to_id) REFERENCES memory_l2_nodes(id)
);

CREATE INDEX IF NOT EXISTS idx_l2_edges_from ON memory_l2_edges(from_id);
CREATE INDEX IF NOT EXISTS idx_l2_edges_to ON memory_l2_edges(to_id);

CREATE TABLE IF NOT EXISTS memory_artifacts (
    memory_id      TEXT NOT NULL,
    layer          TEXT NOT NULL,
    kind           TEXT NOT NULL,
    locator        TEXT NOT NULL,
    hash           TEXT,
    classification TEXT NOT NULL DEFAULT 'internal',
    snippet_policy TEXT NOT NULL DEFAULT 'forbidden',
    created_at     DATETIME NOT NULL,
    PRIMARY KEY (memory_id, kind, locator)
);

CREATE INDEX IF NOT EXISTS idx_artifacts_memory ON memory_artifacts(memory_id);

CREATE TABLE IF NOT EXISTS memory_tombstones (
    tenant_id     TEXT NOT NULL,
    workspace_id  TEXT NOT NULL,
    selector_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL,
    PRIMARY KEY (tenant_id, workspace_id, selector_hash)
);

CREATE TABLE IF NOT EXISTS idempotency_records (
    tenant_id  TEXT NOT NULL,
    key        TEXT NOT NULL,
    result     TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (tenant_id, key)
);
`
