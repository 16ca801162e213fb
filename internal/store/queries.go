package store

// Runs queries
const (
	queryInsertRun = `
		INSERT INTO runs (id, state, created_at)
		VALUES (?, ?, ?)`

	queryFinishRun = `
		UPDATE runs SET state = ?, finished_at = ?
		WHERE id = ?`

	queryGetRun = `
		SELECT id, state, created_at, finished_at
		FROM runs WHERE id = ?`

	queryListRuns = `
		SELECT id, state, created_at, finished_at
		FROM runs ORDER BY created_at DESC, id`

	queryDeleteResults = `DELETE FROM results WHERE run_id = ?`

	queryInsertResult = `
		INSERT INTO results (run_id, position, path, label)
		VALUES (?, ?, ?, ?)`

	queryListResults = `
		SELECT path, label FROM results
		WHERE run_id = ? ORDER BY position`
)

// Units queries
const (
	queryUpsertUnit = `
		INSERT INTO units (run_id, idx, target_kind, target, target_label, state, client_id, flow_id, label, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (run_id, idx) DO UPDATE SET
			state = EXCLUDED.state,
			client_id = EXCLUDED.client_id,
			flow_id = EXCLUDED.flow_id,
			label = EXCLUDED.label,
			error = EXCLUDED.error,
			updated_at = now()`

	queryListUnits = `
		SELECT idx, target_kind, target, target_label, state, client_id, flow_id, label, error
		FROM units WHERE run_id = ? ORDER BY idx`
)
