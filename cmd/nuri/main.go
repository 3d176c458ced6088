package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"nuri/internal/auth"
	"nuri/internal/config"
	"nuri/internal/store"
	"nuri/internal/ui"
)

func main() {
	configPath := pflag.String("config", "", "path to the config file")
	user := pflag.String("user", "", "sign in as this user id before starting")
	pflag.Parse()

	path := *configPath
	if path == "" {
		path = config.ResolveConfigPath()
	}
	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	provider := auth.NewFileProvider(cfg.SessionPath)
	if *user != "" {
		if err := provider.SignIn(*user); err != nil {
			fmt.Printf("failed to sign in: %v\n", err)
			os.Exit(1)
		}
	}
	ownerID, ok := provider.CurrentUserID()
	if !ok {
		fmt.Println("no signed-in user: start with --user <id> to sign in")
		os.Exit(1)
	}

	s, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open task store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := ui.Run(s, provider, cfg, ownerID); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}
