package mqtt

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"testing"
	"time"

	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(ioutil.Discard, debug.Standard)
	os.Exit(m.Run())
}

func TestConnectWithoutBroker(t *testing.T) {
	m := New()
	if err := m.Connect("", "akbd"); err != nil {
		t.Fatalf("Connect without broker: %v", err)
	}
	if m.Enabled() {
		t.Error("handler enabled without broker")
	}
	if err := m.Disconnect(); err != nil {
		t.Errorf("Disconnect: %v", err)
	}
}

func TestSendJSON(t *testing.T) {
	m := New()
	if err := m.SendJSON("/akbd/event", map[string]int{"code": 16}); err != nil {
		t.Fatal(err)
	}

	select {
	case msg := <-m.C:
		if msg.Topic != "/akbd/event" || msg.Retained || msg.Qos != 0 {
			t.Errorf("unexpected message %+v", msg)
		}
		var v map[string]int
		if err := json.Unmarshal(msg.Payload, &v); err != nil || v["code"] != 16 {
			t.Errorf("payload %s: %v", msg.Payload, err)
		}
	case <-time.After(time.Second):
		t.Fatal("no message on channel C")
	}
}

func TestSendJSONMarshalError(t *testing.T) {
	m := New()
	if err := m.SendJSON("/akbd/event", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestServiceWithoutBroker(t *testing.T) {
	m := New()
	done := make(chan struct{})
	go func() {
		m.Service()
		close(done)
	}()

	m.C <- Message{Topic: "/akbd/event", Payload: []byte("{}")}
	close(m.C)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("service did not stop after channel close")
	}
}
