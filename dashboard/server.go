// Package dashboard exposes a small HTTP UI with an SSE stream of tracked
// positions.
package dashboard

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/tradeflux/internal/domain"
)

const positionPollInterval = 2 * time.Second

type positionReader interface {
	FetchPositions(ctx context.Context) ([]domain.Position, error)
}

// Server exposes HTTP endpoints serving the HTML UI and an SSE stream.
type Server struct {
	Addr      string
	Positions positionReader
}

// NewServer creates a new dashboard server instance.
func NewServer(addr string, positions positionReader) *Server {
	return &Server{Addr: addr, Positions: positions}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via
// ACME. An HTTP server on port 80 handles the ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server shutdown error: %v", err)
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("https server shutdown error: %v", err)
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http (acme) server error: %v", err)
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/positions", s.handlePositions)
	mux.HandleFunc("/positions/stream", s.handlePositionStream)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.Positions.FetchPositions(r.Context())
	if err != nil {
		http.Error(w, "failed to load positions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(positionViews(positions))
}

func (s *Server) handlePositionStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	heartbeat := time.NewTicker(20 * time.Second)
	defer heartbeat.Stop()

	poll := time.NewTicker(positionPollInterval)
	defer poll.Stop()

	send := func() error {
		positions, err := s.Positions.FetchPositions(r.Context())
		if err != nil {
			return err
		}
		payload, err := json.Marshal(positionViews(positions))
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: positions\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return nil
	}

	if err := send(); err != nil {
		log.Printf("position stream initial load: %v", err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-poll.C:
			if err := send(); err != nil {
				log.Printf("position stream: %v", err)
				return
			}
		}
	}
}

// positionView is the wire shape served to the UI.
type positionView struct {
	ID           string `json:"id"`
	Pair         string `json:"pair"`
	Status       string `json:"status"`
	Amount       string `json:"amount"`
	OpenPrice    string `json:"open_price"`
	ClosePrice   string `json:"close_price,omitempty"`
	LowestPrice  string `json:"lowest_price,omitempty"`
	HighestPrice string `json:"highest_price,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

func positionViews(positions []domain.Position) []positionView {
	views := make([]positionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, positionView{
			ID:           p.ID,
			Pair:         p.Pair.String(),
			Status:       p.Status.String(),
			Amount:       p.Amount.String(),
			OpenPrice:    p.OpenPrice.String(),
			ClosePrice:   p.ClosePrice.String(),
			LowestPrice:  p.LowestPrice.String(),
			HighestPrice: p.HighestPrice.String(),
			Reason:       p.Reason,
		})
	}
	return views
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>tradeflux positions</title>
<style>
body { font-family: monospace; background: #111; color: #ddd; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #333; padding: 6px 10px; text-align: left; }
th { background: #222; }
.OPENED { color: #73F59F; }
.CLOSING, .OPENING { color: #F5D873; }
.ERROR { color: #F57373; }
</style>
</head>
<body>
<h2>positions</h2>
<table id="positions"><thead>
<tr><th>id</th><th>pair</th><th>status</th><th>amount</th><th>open</th><th>close</th><th>low</th><th>high</th><th>reason</th></tr>
</thead><tbody></tbody></table>
<script>
const body = document.querySelector('#positions tbody');
const es = new EventSource('/positions/stream');
es.addEventListener('positions', function (e) {
  const rows = JSON.parse(e.data).map(function (p) {
    return '<tr><td>' + p.id + '</td><td>' + p.pair + '</td><td class="' + p.status + '">' + p.status +
      '</td><td>' + p.amount + '</td><td>' + p.open_price + '</td><td>' + (p.close_price || '') +
      '</td><td>' + (p.lowest_price || '') + '</td><td>' + (p.highest_price || '') +
      '</td><td>' + (p.reason || '') + '</td></tr>';
  });
  body.innerHTML = rows.join('');
});
</script>
</body>
</html>`
