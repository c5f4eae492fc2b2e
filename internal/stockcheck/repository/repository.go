// Package repository implements the stock check stores on PostgreSQL.
//
// Every method runs on database.DB.Conn(ctx), so it joins the transaction
// started by database.DB.WithTx when there is one.
package repository

import (
	"github.com/google/uuid"
	"github.com/medflow/stockcheck-backend/pkg/database"
)

// mapErr turns known Postgres errors into AppErrors and passes everything else through
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if appErr := database.MapPQError(err); appErr != nil {
		return appErr
	}
	return err
}

// validID filters ids that would make Postgres fail the uuid cast
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
