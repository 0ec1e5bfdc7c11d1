package notify

import (
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"
)

func TestRegistryRegisterAndRemove(t *testing.T) {
	r := NewRegistry()
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 12345}

	r.Register("u1", addr)
	r.Register("", addr)  // ignored
	r.Register("u2", nil) // ignored

	if got := len(r.Snapshot()); got != 1 {
		t.Fatalf("Snapshot len = %d, want 1", got)
	}

	r.Remove("u1")
	if got := len(r.Snapshot()); got != 0 {
		t.Fatalf("Snapshot len after remove = %d, want 0", got)
	}
}

func TestParseRegisterMessage(t *testing.T) {
	msg, err := parseRegisterMessage([]byte(`{"type":"register","user_id":"u1"}`))
	if err != nil {
		t.Fatalf("parse valid message: %v", err)
	}
	if msg.UserID != "u1" || msg.Type != RegisterMessageType {
		t.Fatalf("unexpected message: %+v", msg)
	}

	if _, err := parseRegisterMessage([]byte(`{"type":"register"}`)); err == nil {
		t.Fatal("expected error for missing user_id")
	}
	if _, err := parseRegisterMessage([]byte(`not json`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestBroadcastDuringShutdown(t *testing.T) {
	registry := NewRegistry()
	registry.Register("u1", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 19999})
	srv := NewServer("127.0.0.1:0", registry, nil)

	runDone := make(chan error, 1)
	go func() { runDone <- srv.Run() }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server never started listening")
		}
		time.Sleep(10 * time.Millisecond)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv.BroadcastRankingChange("r1", "u1")
		}()
	}
	srv.Close()
	wg.Wait()

	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run returned error after Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestRegisterAndBroadcast(t *testing.T) {
	registry := NewRegistry()
	srv := NewServer("127.0.0.1:0", registry, nil)

	runDone := make(chan error, 1)
	go func() { runDone <- srv.Run() }()
	defer srv.Close()

	var srvAddr net.Addr
	deadline := time.Now().Add(2 * time.Second)
	for srvAddr = srv.Addr(); srvAddr == nil; srvAddr = srv.Addr() {
		if time.Now().After(deadline) {
			t.Fatal("server never started listening")
		}
		time.Sleep(10 * time.Millisecond)
	}

	client, err := net.Dial("udp", srvAddr.String())
	if err != nil {
		t.Fatalf("dial udp: %v", err)
	}
	defer client.Close()

	if _, err := client.Write([]byte(`{"type":"register","user_id":"u1"}`)); err != nil {
		t.Fatalf("send register: %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for len(registry.Snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	srv.BroadcastRankingChange("r1", "u1")

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 2048)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}

	var msg RankingChangeMessage
	if err := json.Unmarshal(buf[:n], &msg); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if msg.Type != RankingChangeMessageType || msg.RankingID != "r1" || msg.OwnerUID != "u1" {
		t.Fatalf("unexpected broadcast: %+v", msg)
	}

	srv.Close()
	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("Run returned error after Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
