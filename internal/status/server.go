//////////////////////////////////////////////////////////////////////////////
//
// Status server pushes player snapshots to websocket clients
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

// Package status serves the state of a running player over HTTP. GET /status
// returns one JSON snapshot; /ws upgrades to a websocket that receives a
// snapshot on every publish.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/lanikai/alohaplay/internal/logging"
)

var log = logging.DefaultLogger.WithTag("status")

// Pending messages per websocket client.
const subscriberCapacity = 4

type Server struct {
	// Sample returns the current snapshot. It is called from the publish
	// loop and HTTP handlers.
	Sample func() Snapshot

	// Interval between published snapshots in Run.
	Interval time.Duration

	hub      Hub
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

func NewServer(sample func() Snapshot, interval time.Duration) *Server {
	s := &Server{
		Sample:   sample,
		Interval: interval,
		mux:      http.NewServeMux(),
	}
	s.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/ws", s.handleWebsocket)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

// Publish sends the current snapshot to every websocket client.
func (s *Server) Publish() error {
	if s.hub.Subscribers() == 0 {
		return nil
	}
	msg, err := json.Marshal(s.Sample())
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	_, err = s.hub.Write(msg)
	return err
}

// Run serves on addr and publishes a snapshot every Interval until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}

	errc := make(chan error, 1)
	go func() {
		log.Info("Serving status on http://%s/status", addr)
		errc <- srv.ListenAndServe()
	}()

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.Publish(); err != nil {
				log.Warn("%v", err)
			}
		case err := <-errc:
			s.hub.Close()
			return errors.Wrap(err, "status server")
		case <-ctx.Done():
			s.hub.Close()
			shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Sample()); err != nil {
		log.Warn("Writing status: %v", err)
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("upgrade: %v", err)
		return
	}
	defer ws.Close()

	ch := s.hub.Subscribe(subscriberCapacity)
	defer s.hub.Unsubscribe(ch)

	// Clients send nothing; reading only detects the close.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				s.hub.Unsubscribe(ch)
				return
			}
		}
	}()

	if err := ws.WriteJSON(s.Sample()); err != nil {
		log.Debug("Status client gone: %v", err)
		return
	}
	for msg := range ch {
		if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debug("Status client gone: %v", err)
			return
		}
	}
}
