package clickhouse

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions(t *testing.T) {
	cfg := ClientConfig{
		Host:         "ch.local",
		Port:         9440,
		Database:     "sumreport",
		User:         "u",
		Password:     "p",
		UseHTTP:      true,
		AsyncInsert:  true,
		WaitForAsync: true,
		MaxExecTime:  90 * time.Second,
	}
	opts := buildOptions(cfg)

	assert.Equal(t, []string{"ch.local:9440"}, opts.Addr)
	assert.Equal(t, "sumreport", opts.Auth.Database)
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Equal(t, 90, opts.Settings["max_execution_time"])
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.Equal(t, 1, opts.Settings["wait_for_async_insert"])
}

func TestBuildOptions_NativeWithoutAsync(t *testing.T) {
	opts := buildOptions(ClientConfig{Host: "h", Port: 9000})
	assert.Equal(t, clickhouse.Native, opts.Protocol)
	assert.Empty(t, opts.Settings)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient()
	assert.Error(t, err)
}

func TestInitSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(db)

	mock.ExpectExec("CREATE DATABASE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("denied"))

	err = c.InitSchema(context.Background(), []string{"CREATE DATABASE x", "CREATE TABLE y"})
	assert.ErrorContains(t, err, "init schema")
	assert.NoError(t, mock.ExpectationsWereMet())
}
