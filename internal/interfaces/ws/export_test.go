package ws

import "net/http"

// HandshakeDuringClose completes a handshake whose slot was reserved right
// before the server was closed.
func (s *Server) HandshakeDuringClose(w http.ResponseWriter, r *http.Request) {
	if !s.reserve() {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	s.Close()
	s.accept(w, r)
}
