package sqlite

import (
	"database/sql"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver with the vec0 module preloaded.
const DriverName = "sqlite3_vec"

func init() {
	sqlite_vec.Auto()

	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			_, err := conn.Exec("PRAGMA foreign_keys = ON", nil)
			return err
		},
	})
}

// SerializeVector encodes a float32 vector in the little-endian blob layout vec0 expects.
func SerializeVector(v []float32) ([]byte, error) {
	return sqlite_vec.SerializeFloat32(v)
}
