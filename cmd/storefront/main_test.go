package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/handcraftedhaven/storefront/internal/config"
	"github.com/handcraftedhaven/storefront/internal/schema"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printReport(cmd, &schema.Report{Results: []schema.StepResult{
		{Version: 1, Name: "create users table", Outcome: schema.OutcomeApplied},
		{Version: 6, Name: "backfill name", Outcome: schema.OutcomeSkipped, Err: schema.ErrSchemaDrift},
		{Version: 9, Name: "unique email index", Outcome: schema.OutcomeFailed, Err: errors.New("duplicate key")},
	}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, " 1  applied  create users table", lines[0])
	assert.Contains(t, lines[1], "skipped")
	assert.Contains(t, lines[1], schema.ErrSchemaDrift.Error())
	assert.True(t, strings.HasSuffix(lines[2], "unique email index: duplicate key"))
}

func TestCredentials(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database.Host = "db"
	cfg.Database.User = "haven"
	cfg.Database.Name = "storefront"

	creds := credentials(cfg)

	assert.Equal(t, "db", creds.Host)
	assert.Equal(t, 5432, creds.Port)
	assert.Equal(t, cfg.Database.MigrationsPath, creds.MigrationsDirPath)
	assert.Contains(t, creds.DSN(), "dbname=storefront")
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "init-db", "migrate"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, initDBCmd.Flags().Lookup("strict"))
}
