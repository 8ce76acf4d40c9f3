package server

import (
	"net/http"
	"testing"
	"time"
)

func TestWriteTimeoutCoversSlowestCall(t *testing.T) {
	s := New(":0", http.NotFoundHandler(), time.Minute)
	if s.WriteTimeout != baseWrite+time.Minute {
		t.Fatalf("WriteTimeout = %v", s.WriteTimeout)
	}
	if s.ReadHeaderTimeout == 0 || s.IdleTimeout == 0 {
		t.Fatal("header or idle timeout unset")
	}
}
