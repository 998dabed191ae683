package main

import (
	"context"
	"log"

	"github.com/romangod6/lemmy-sitemap/internal/cli"
)

func main() {
	sitemapgenCmd := cli.NewCommand()
	if err := sitemapgenCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
