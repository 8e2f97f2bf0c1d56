package dao

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/lk2023060901/mosoul/pkg/database/postgres"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, postgres.ErrNoRows)
}
