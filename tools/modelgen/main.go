package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gen"
	"gorm.io/gorm"
)

// Tables owned by the gorm repositories. guard_* tables belong to the pgx
// key-value store and schema_migrations to the migrator.
var tables = []string{
	"characters",
	"inventory_items",
	"retreat_records",
	"breakthrough_records",
	"domain_events",
	"character_lifecycles",
}

func main() {
	var dsn, out string
	flag.StringVar(&dsn, "dsn", os.Getenv("XIUXIAN_DB_DSN"), "postgres dsn")
	flag.StringVar(&out, "out", "internal/adapter/repo/gorm/model", "output dir for generated models")
	flag.Parse()

	if dsn == "" {
		log.Fatal("missing --dsn or XIUXIAN_DB_DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:      out,
		ModelPkgPath: "model",
		Mode:         gen.WithoutContext | gen.WithDefaultQuery,
	})
	g.UseDB(db)
	g.WithDataTypeMap(map[string]func(gorm.ColumnType) string{
		"jsonb": func(col gorm.ColumnType) string {
			if col.Name() == "payload" {
				return "[]byte"
			}
			if nullable, ok := col.Nullable(); ok && nullable {
				return "*string"
			}
			return "string"
		},
	})
	for _, table := range tables {
		g.GenerateModel(table)
	}
	g.Execute()

	fmt.Printf("generated gorm models for %d tables at %s\n", len(tables), out)
}
