// Command sitemigrate is a one-shot batch job that copies the legacy
// relational contact_submissions table into the document store. Per-row
// failures are counted and reported but do not affect the exit code; only a
// failure to connect or fetch from the source exits nonzero.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"

	"github.com/arclabs/sitekit"
	"github.com/arclabs/sitekit/docstore"
)

func main() {
	source := flag.String("source", "", "path to the legacy relational database")
	target := flag.String("target", "data/site.db", "path to the document database")
	flag.Parse()

	if *source == "" {
		fmt.Fprintln(os.Stderr, "Usage: sitemigrate -source legacy.db [-target data/site.db]")
		os.Exit(1)
	}

	src, err := sql.Open("sqlite", *source)
	if err != nil {
		log.Fatalf("open source: %v", err)
	}
	defer src.Close()

	dst, err := docstore.Open(*target)
	if err != nil {
		log.Fatalf("open target: %v", err)
	}
	defer dst.Close()

	m := &sitekit.Migration{Source: src, Target: dst}
	res, err := m.Run()
	if err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	fmt.Printf("Migration completed: %d migrated, %d failed\n", res.Migrated, res.Failed)
}
