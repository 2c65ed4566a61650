// Package status broadcasts progress messages to websocket clients.
package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	ERROR
	PROGRESS
)

type Status struct {
	Message  string
	Time     time.Time
	Type     int
	Progress float32
}

type client struct {
	b    *Broadcaster
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		c.b.unregister(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		case <-c.done:
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// readPump only detects the client going away.
func (c *client) readPump() {
	defer close(c.done)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcaster fans status messages out to connected clients.
// New clients receive the last message first.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*client]bool
	last    []byte
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*client]bool)}
}

func (b *Broadcaster) NewClient(conn *websocket.Conn) {
	c := &client{b: b, conn: conn, send: make(chan []byte, 32), done: make(chan struct{})}

	b.mu.Lock()
	b.clients[c] = true
	if b.last != nil {
		c.send <- b.last
	}
	b.mu.Unlock()

	go c.readPump()
	go c.writePump()
}

func (b *Broadcaster) unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, c)
}

func (b *Broadcaster) Clients() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Last returns the most recent encoded message, nil before the first one.
func (b *Broadcaster) Last() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

func (b *Broadcaster) Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	data, err := json.Marshal(&Status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress})
	if err != nil {
		log.Printf("[status] marshal error: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = data
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("[status] client is too slow, dropping message")
		}
	}
}

func (b *Broadcaster) Info(format string, a ...interface{}) {
	b.Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func (b *Broadcaster) Error(format string, a ...interface{}) {
	b.Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func (b *Broadcaster) Progress(progress float32, format string, a ...interface{}) {
	b.Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}
