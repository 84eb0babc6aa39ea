package constants

const (
	GetStatusByApiKey = `
	SELECT id, status FROM api_keys WHERE id = ?
	`

	InsertApiKey = `
	INSERT INTO api_keys (id, label, status) VALUES (?, ?, true)
	`
)
