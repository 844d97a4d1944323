package storage

const schema = `
CREATE TABLE IF NOT EXISTS cards (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    question    TEXT NOT NULL,
    answer      TEXT NOT NULL,
    fingerprint TEXT NOT NULL UNIQUE,
    interval    INTEGER NOT NULL DEFAULT 0,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    last_review TEXT,               -- RFC 3339, NULL until first review
    next_review TEXT NOT NULL,      -- ISO date, midnight UTC
    created_at  TEXT NOT NULL,      -- RFC 3339
    source_id   INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

CREATE TABLE IF NOT EXISTS review_log (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id     INTEGER NOT NULL,
    quality     INTEGER NOT NULL,
    interval    INTEGER NOT NULL,
    ease_factor REAL NOT NULL,
    reviewed_at TEXT NOT NULL,      -- RFC 3339

    FOREIGN KEY(card_id) REFERENCES cards(id)
);

CREATE TABLE IF NOT EXISTS sources (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    path          TEXT NOT NULL UNIQUE,
    kind          TEXT NOT NULL,
    last_imported TEXT
);
`
