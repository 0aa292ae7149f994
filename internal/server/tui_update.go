// ABOUTME: TUI update helpers for server
// ABOUTME: Snapshots per-client playback state for the status display
package server

import "time"

// updateTUI sends current server state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}
	s.tui.Update(ServerStatus{
		Name:    s.config.Name,
		Port:    s.config.Port,
		Title:   s.config.Title,
		Clients: s.clientInfos(),
	})
}

func (s *Server) clientInfos() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	clients := make([]ClientInfo, 0, len(s.clients))
	for _, client := range s.clients {
		client.mu.RLock()
		info := ClientInfo{
			Name:      client.Name,
			ID:        client.ID,
			BitDepth:  client.Format.BitDepth,
			State:     client.State,
			LoopCount: client.LoopCount,
		}
		if client.Format.SampleRate > 0 {
			info.Position = time.Duration(client.Position) * time.Second / time.Duration(client.Format.SampleRate)
		}
		client.mu.RUnlock()
		clients = append(clients, info)
	}
	return clients
}
