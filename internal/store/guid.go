package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
)

const (
	guidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	guidLength   = 8
)

func generateGUID(prefix string) (string, error) {
	buf := make([]byte, guidLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate guid: %w", err)
	}
	id := make([]byte, guidLength)
	for i := range id {
		id[i] = guidAlphabet[int(buf[i])%len(guidAlphabet)]
	}
	return fmt.Sprintf("%s-%s", prefix, string(id)), nil
}

// generateUniqueGUID retries until the id does not collide in the table.
func generateUniqueGUID(tx *sql.Tx, table, prefix string) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		guid, err := generateGUID(prefix)
		if err != nil {
			return "", err
		}
		var count int
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE guid = ?", table)
		if err := tx.QueryRow(query, guid).Scan(&count); err != nil {
			return "", err
		}
		if count == 0 {
			return guid, nil
		}
	}
	return "", fmt.Errorf("generate guid: exhausted retries for %s", table)
}
