package main

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type step struct {
	name  string
	err   error
	order *[]string
}

func (s step) Shutdown(context.Context) error {
	*s.order = append(*s.order, s.name)
	return s.err
}

func (s step) Close() error {
	*s.order = append(*s.order, s.name)
	return s.err
}

func TestServerStopsBeforeDatabaseCloses(t *testing.T) {
	var order []string
	err := closeServerThenDB(context.Background(), step{name: "http", order: &order}, step{name: "db", order: &order}, zerolog.Nop())
	assert.NoError(t, err)
	assert.Equal(t, []string{"http", "db"}, order)
}

func TestDatabaseClosesWhenServerShutdownFails(t *testing.T) {
	var order []string
	boom := errors.New("deadline exceeded")
	err := closeServerThenDB(context.Background(), step{name: "http", err: boom, order: &order}, step{name: "db", order: &order}, zerolog.Nop())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"http", "db"}, order)
}
