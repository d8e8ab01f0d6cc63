// Command oauth-init runs the OAuth consent flow once and stores the token
// the calendar client reads from GOOGLE_OAUTH_TOKEN_FILE.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	gcal "room8/internal/calendar/google"
	"room8/internal/cli"
)

func main() {
	cli.LoadEnvFile()

	clientJSON := os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")
	clientFile := os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")
	var b []byte
	var err error
	switch {
	case clientJSON != "":
		b = []byte(clientJSON)
	case clientFile != "":
		b, err = os.ReadFile(clientFile)
		if err != nil {
			log.Fatalf("read client file: %v", err)
		}
	default:
		log.Fatalf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}

	cfg, err := google.ConfigFromJSON(b, gcal.Scope)
	if err != nil {
		log.Fatalf("oauth config: %v", err)
	}

	// The OAuth client must list http://localhost:<port>/callback as an
	// authorized redirect URI.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	cfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := randomState()
	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errStr := q.Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Calendar access granted. You may close this window and return to the terminal.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()

	fmt.Printf("Open this URL to authorize calendar access:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(context.Background(), code)
		if err != nil {
			log.Fatalf("token exchange: %v", err)
		}
		outFile := os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
		if outFile == "" {
			outFile = "token.json"
		}
		if err := saveToken(outFile, tok); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Printf("Saved token to %s\n", outFile)
	case <-time.After(5 * time.Minute):
		log.Fatalf("authorization timed out")
	case <-signalChan():
		log.Fatalf("interrupted")
	}
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func signalChan() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	return c
}
