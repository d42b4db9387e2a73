package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"path/filepath"

	"github.com/cipherdesk/cipherdesk/config"
	"github.com/cipherdesk/cipherdesk/server"
)

var configDir = flag.String("config-dir", "", "Configuration directory (defaults to XDG config dir)")

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := server.LogToFile(filepath.Join(cfg.ConfigDir, "server.log")); err != nil {
		log.Printf("file logging disabled: %v", err)
	}

	db := server.InitDB(cfg.DBPath)
	defer db.Close()
	server.CreateSchema(db)

	hub := server.NewHub()
	go hub.Run()

	mux := server.NewRouter(hub, db)
	addr := fmt.Sprintf(":%d", cfg.Port)

	server.ServerLogger.Info("cipherdesk relay listening", map[string]interface{}{
		"addr": addr,
		"tls":  cfg.IsTLSEnabled(),
	})
	if cfg.IsTLSEnabled() {
		log.Fatal(http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, mux))
	}
	log.Fatal(http.ListenAndServe(addr, mux))
}
