package main

import (
	"errors"
	"flag"
	"food_delivery/internal/pkg/config"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	down := flag.Bool("down", false, "roll back one migration")
	force := flag.Int("force", -1, "force the schema version after a failed migration")
	source := flag.String("source", "file://migrations", "migration source")
	flag.Parse()

	config.LoadConfig()
	m, err := migrate.New(*source, config.GlobalConfig.Database.URL())
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	switch {
	case *force >= 0:
		// dirty 状态需要人工确认后强制版本
		err = m.Force(*force)
	case *down:
		err = m.Steps(-1)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			log.Fatalf("database is dirty at version %d, fix it and rerun with -force %d", dirty.Version, dirty.Version)
		}
		log.Fatal(err)
	}

	version, dirty, _ := m.Version()
	log.Printf("migration finished, version=%d dirty=%v", version, dirty)
}
