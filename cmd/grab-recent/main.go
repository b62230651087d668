package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/drscotthawley/espiownage"
	"github.com/drscotthawley/espiownage/internal/config"
	"github.com/drscotthawley/espiownage/internal/utils"
)

func main() {
	var pattern, dest string

	flag.StringVar(&pattern, "dirs", "annotations*", "glob matching the annotation directories, oldest first")
	flag.StringVar(&dest, "dest", "recent_annotations", "destination directory")
	flag.Parse()

	matches, err := utils.SortedGlob(pattern)
	if err != nil {
		log.Fatal(err)
	}
	var dirs []string
	for _, m := range matches {
		if utils.DirExists(m) && filepath.Clean(m) != filepath.Clean(dest) {
			dirs = append(dirs, m)
		}
	}
	if len(dirs) == 0 {
		log.Fatalf("usage: %s -dirs 'annotations*' -dest recent_annotations (no directories matched %q)", filepath.Base(os.Args[0]), pattern)
	}
	log.Printf("directories: %v", dirs)

	tk, err := espiownage.New(config.Default(), nil)
	if err != nil {
		log.Fatal(err)
	}
	later, sum, err := tk.GrabRecent(context.Background(), dirs, dest)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("copied %d records to %s, %d newer than %s", sum.Processed, dest, later, dirs[0])
}
