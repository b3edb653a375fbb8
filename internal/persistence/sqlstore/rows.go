package sqlstore

import "database/sql"

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// optionalArg turns an optional accessor result into a nullable column value.
func optionalArg[T any](v T, ok bool) any {
	if !ok {
		return nil
	}
	return v
}
