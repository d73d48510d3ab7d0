package store

import "database/sql"

func sqlNull() sql.NullString { return sql.NullString{} }

func sqlString(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }
