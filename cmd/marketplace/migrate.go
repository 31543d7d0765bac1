package main

import (
	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"
)

const (
	dbDriverFlag    = "db-driver"
	databaseURLFlag = "database-url"
)

var migrateFlags = map[string]cobraflags.Flag{
	dbDriverFlag: &cobraflags.StringFlag{
		Name:  dbDriverFlag,
		Value: "",
		Usage: "Database driver, sqlite or postgres (overrides DB_DRIVER)",
	},
	databaseURLFlag: &cobraflags.StringFlag{
		Name:  databaseURLFlag,
		Value: "",
		Usage: "Database file or connection string (overrides DATABASE_URL)",
	},
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE:  runMigrate,
	}
	cobraflags.RegisterMap(cmd, migrateFlags)
	return cmd
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if driver := migrateFlags[dbDriverFlag].GetString(); driver != "" {
		cfg.DBDriver = driver
	}
	if url := migrateFlags[databaseURLFlag].GetString(); url != "" {
		cfg.DatabaseURL = url
	}

	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}
	return repo.Close()
}
