package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const sqliteConstraintPrefix = "constraint failed: "

// ErrorDump flattens an error chain and any driver detail for structured logs.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Retryable  bool     `json:"retryable"`
	Chain      []string `json:"chain,omitempty"`

	Driver     string `json:"driver,omitempty"`
	DBCode     string `json:"db_code,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	DBMessage  string `json:"db_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error(), Code: CodeInternal}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	d.Retryable = MetadataFor(d.Code).Retryable

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Driver = "pgx"
		d.DBCode = pgxErr.Code
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		d.Column = pgxErr.ColumnName
		d.Detail = pgxErr.Detail
		d.DBMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Driver = "pq"
		d.DBCode = string(pqErr.Code)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		d.Column = pqErr.Column
		d.Detail = pqErr.Detail
		d.DBMessage = pqErr.Message
		return d
	}

	// SQLite only reports text, e.g. "UNIQUE constraint failed: bolao_quotas.sale_id".
	msg := err.Error()
	if idx := strings.Index(msg, sqliteConstraintPrefix); idx >= 0 {
		d.Driver = "sqlite"
		d.DBMessage = msg
		target := strings.TrimSpace(msg[idx+len(sqliteConstraintPrefix):])
		if first, _, ok := strings.Cut(target, ","); ok {
			target = first
		}
		if table, column, ok := strings.Cut(target, "."); ok {
			d.Table = table
			d.Column = column
		}
	}
	return d
}

// Fields renders the dump as logger fields, omitting empty driver detail.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_code":  d.Code,
		"error_chain": d.Chain,
		"retryable":   d.Retryable,
	}
	optional := map[string]string{
		"db_driver":     d.Driver,
		"db_code":       d.DBCode,
		"db_constraint": d.Constraint,
		"db_table":      d.Table,
		"db_column":     d.Column,
		"db_detail":     d.Detail,
		"db_message":    d.DBMessage,
	}
	for k, v := range optional {
		if v != "" {
			fields[k] = v
		}
	}
	return fields
}
