package entities

type ApiKey struct {
	ApiKey string `db:"id"`
	Status bool   `db:"status"`
}

// NewApiKey is the row written by the key generator.
type NewApiKey struct {
	ID    string `db:"id"`
	Label string `db:"label"`
}
