package models

import "github.com/google/uuid"

// ensureID fills a missing primary key so inserts behave the same on Postgres
// and on the SQLite development double.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every persisted model in dependency order; used by AutoMigrate on
// the SQLite double and by tests.
func All() []any {
	return []any{
		&User{},
		&Edition{},
		&Customer{},
		&Seller{},
		&Sale{},
		&IndividualCard{},
		&BolaoGroup{},
		&BolaoQuota{},
		&CardUpload{},
		&SystemSettings{},
		&Notification{},
	}
}
