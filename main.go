package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/antibyte/templecode/pkg/auth"
	"github.com/antibyte/templecode/pkg/configuration"
	"github.com/antibyte/templecode/pkg/logger"
	"github.com/antibyte/templecode/pkg/slotstore"
	"github.com/antibyte/templecode/pkg/terminal"
)

func main() { // Initialize configuration (before all other initializations)
	configPath := "settings.cfg"
	err := configuration.Initialize(configPath)
	if err != nil {
		fmt.Printf("Error initializing configuration: %v\n", err)
		return
	}

	// Initialize logger
	err = logger.Initialize()
	if err != nil {
		fmt.Printf("Error initializing logger: %v\n", err)
		return
	}
	defer logger.Close()
	// First log message
	logger.ConfigInfo("System started - Configuration loaded from: %s", configPath)

	// Read log file from configuration (for compatibility)
	logFilePath := configuration.GetString("Debug", "log_file", "debug.log")

	// Open log file in overwrite mode
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Printf("Error opening log file: %v\n", err)
		return
	}
	defer logFile.Close() // Check if legacy logging should be disabled (multiplatform solution)
	disableLegacyLogging := configuration.GetBool("Debug", "disable_legacy_logging", false)

	if disableLegacyLogging {
		// Only redirect log.Printf to discard, leave stdout/stderr alone
		log.SetOutput(io.Discard)
		fmt.Println("Legacy logging disabled. Using structured logging only.")
	} else {
		// Normal logging to file - but don't redirect stdout/stderr
		log.SetOutput(logFile)

		fmt.Println("Log outputs are redirected to debug.log.")
		log.Printf("=== SERVER START %s ===", time.Now().Format("2006-01-02 15:04:05"))
	}

	// Save slot storage (file or sqlite backend, see [SaveSlots] section)
	slots, err := slotstore.Open(
		configuration.GetString("SaveSlots", "backend", "file"),
		configuration.GetString("SaveSlots", "directory", "saves"),
		configuration.GetString("SaveSlots", "database_file", "templecode.db"),
		configuration.GetInt("SaveSlots", "max_slots", 10),
	)
	if err != nil {
		logger.Fatal(logger.AreaSaveSlot, "Save slot store initialization failed: %v", err)
	}
	defer slots.Close()
	logger.Info(logger.AreaSaveSlot, "Save slot store initialized (%s backend)",
		configuration.GetString("SaveSlots", "backend", "file"))

	// Create TerminalHandler; each session gets its own interpreter
	handler := terminal.NewTerminalHandler(slots)
	handler.StartIdleReaper(context.Background())
	logger.Info(logger.AreaGeneral, "TerminalHandler created (session-based interpreter instances)")

	// Configure HTTP handlers
	// Authentication API routes
	http.HandleFunc("/api/auth/session", auth.HandleCreateSession)
	http.HandleFunc("/api/auth/validate", auth.HandleTokenValidation)
	http.HandleFunc("/api/auth/logout", auth.HandleLogout)
	http.HandleFunc("/ws", handler.HandleWebSocket)

	// Add favicon handler to prevent 404 errors
	http.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r) // Return 404 but don't log it as error
	})
	// Static file servers for the frontend
	http.Handle("/js/", http.StripPrefix("/js/", http.FileServer(http.Dir("js"))))
	http.Handle("/css/", http.StripPrefix("/css/", http.FileServer(http.Dir("css"))))
	http.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir("assets"))))

	// Root-Route - MUST be registered LAST to not override specific routes
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			if _, err := os.Stat("index.html"); err == nil {
				http.ServeFile(w, r, "index.html")
			} else {
				logger.Error(logger.AreaGeneral, "index.html not found")
				http.Error(w, "Main HTML file not found", http.StatusNotFound)
			}
		} else {
			http.NotFound(w, r)
		}
	})

	startHTTPServer(configuration.GetString("Network", "http_port", "8080"))
}

// startHTTPServer starts the HTTP server
func startHTTPServer(port string) {
	logger.Info(logger.AreaGeneral, "Starting HTTP server on port %s", port)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.Error(logger.AreaGeneral, "HTTP server startup failed: %v", err)
		log.Fatalf("Error starting HTTP server: %v", err)
	}
}
