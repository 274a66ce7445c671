package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS tests (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	skill TEXT NOT NULL,
	test_type TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1,
	content_json TEXT NOT NULL,
	total_questions INTEGER NOT NULL DEFAULT 0,
	total_marks INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS exams (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1,
	listening_test_id TEXT NOT NULL,
	reading_test_id TEXT NOT NULL,
	writing_test_id TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS exam_sessions (
	session_id TEXT PRIMARY KEY,
	exam_id TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	candidate_phone TEXT NOT NULL DEFAULT '',
	candidate_national_id TEXT NOT NULL,
	status TEXT NOT NULL,
	current_section TEXT NOT NULL,
	answers_json TEXT NOT NULL,
	scores_json TEXT NOT NULL,
	overall_band REAL NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	completed_at DATETIME,
	version INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_sessions_open
	ON exam_sessions (exam_id, candidate_national_id) WHERE status = 'in-progress';

CREATE TABLE IF NOT EXISTS writing_submissions (
	id TEXT PRIMARY KEY,
	test_id TEXT NOT NULL,
	task_number INTEGER NOT NULL,
	submitted_by TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL,
	word_count INTEGER NOT NULL,
	scores_json TEXT NOT NULL DEFAULT '',
	band_score REAL,
	feedback_json TEXT NOT NULL DEFAULT '',
	suggestion_json TEXT NOT NULL DEFAULT '',
	marking_status TEXT NOT NULL,
	marked_by TEXT NOT NULL DEFAULT '',
	marked_at DATETIME,
	submitted_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS counters (
	name TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_sessions (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	imported_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS tests (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	skill TEXT NOT NULL,
	test_type TEXT NOT NULL DEFAULT '',
	difficulty TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	content_json TEXT NOT NULL,
	total_questions INTEGER NOT NULL DEFAULT 0,
	total_marks INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS exams (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	listening_test_id TEXT NOT NULL,
	reading_test_id TEXT NOT NULL,
	writing_test_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS exam_sessions (
	session_id TEXT PRIMARY KEY,
	exam_id TEXT NOT NULL,
	candidate_name TEXT NOT NULL,
	candidate_phone TEXT NOT NULL DEFAULT '',
	candidate_national_id TEXT NOT NULL,
	status TEXT NOT NULL,
	current_section TEXT NOT NULL,
	answers_json TEXT NOT NULL,
	scores_json TEXT NOT NULL,
	overall_band DOUBLE PRECISION NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	version BIGINT NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_exam_sessions_open
	ON exam_sessions (exam_id, candidate_national_id) WHERE status = 'in-progress';

CREATE TABLE IF NOT EXISTS writing_submissions (
	id TEXT PRIMARY KEY,
	test_id TEXT NOT NULL,
	task_number INTEGER NOT NULL,
	submitted_by TEXT NOT NULL DEFAULT '',
	response TEXT NOT NULL,
	word_count INTEGER NOT NULL,
	scores_json TEXT NOT NULL DEFAULT '',
	band_score DOUBLE PRECISION,
	feedback_json TEXT NOT NULL DEFAULT '',
	suggestion_json TEXT NOT NULL DEFAULT '',
	marking_status TEXT NOT NULL,
	marked_by TEXT NOT NULL DEFAULT '',
	marked_at TIMESTAMPTZ,
	submitted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS counters (
	name TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_sessions (
	id TEXT PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id),
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS imported_files (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`
