package repo_test

import (
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docchat/internal/config"
	"github.com/xxxsen/docchat/internal/db"
)

const testEmbeddingDim = 384

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "docchat",
		Password: "docchat_pass",
		DBName:   "docchat_test",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(conn))
	for _, table := range []string{"document_chunks", "chat_history", "embedding_cache", "users"} {
		_, err := conn.Exec("TRUNCATE TABLE " + table)
		require.NoError(t, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// testVec builds a deterministic vector in the schema's dimension with the
// leading components set, which is enough to control L2 ranking in tests.
func testVec(lead ...float32) []float32 {
	vec := make([]float32, testEmbeddingDim)
	copy(vec, lead)
	return vec
}
