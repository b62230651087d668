package main

import (
	"flag"
	"log"
	"os"

	"github.com/drscotthawley/espiownage"
	"github.com/drscotthawley/espiownage/internal/config"
)

func main() {
	var cfgPath, script string

	flag.StringVar(&cfgPath, "config", config.GetConfigPath(), "config file (JSON)")
	flag.StringVar(&script, "script", "", "file of editor commands (default stdin)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"annotations"}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	tk, err := espiownage.New(cfg, nil)
	if err != nil {
		log.Fatal(err)
	}
	session, err := tk.Edit(args)
	if err != nil {
		log.Fatal(err)
	}

	in := os.Stdin
	if script != "" {
		f, err := os.Open(script)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	log.Println("commands: next, prev, list, save, quit, press/motion/release X Y, drag X0 Y0 X1 Y1, dclick X Y, rings ID N, render PATH")
	log.Println(session.Status())
	for _, err := range session.Skipped() {
		log.Printf("skipped row: %v", err)
	}
	if err := session.Run(in, os.Stdout); err != nil {
		log.Fatal(err)
	}
	if session.Dirty() {
		log.Printf("unsaved changes to %s discarded", session.Current().Record)
	}
}
